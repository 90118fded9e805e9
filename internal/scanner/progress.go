package scanner

// Progress observes a scan. Advance is called once per candidate, possibly
// from several goroutines.
type Progress interface {
	Start(total int)
	Advance(entry string, matched bool)
	Finish()
}

type nopProgress struct{}

func (nopProgress) Start(int)            {}
func (nopProgress) Advance(string, bool) {}
func (nopProgress) Finish()              {}
