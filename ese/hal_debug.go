package ese

type busDebug struct {
	id   string
	l    Logger
	next Bus
}

func (b *busDebug) Tx(w, r []byte) error {
	b.l.Printf("%5s >>  tx(%d, %d)", b.id, len(w), len(r))
	if len(w) > 0 {
		b.l.Printf("%s", hexDump(w))
	}
	err := b.next.Tx(w, r)
	b.l.Printf("%5s <<  tx %+v", b.id, err)
	if err == nil && len(r) > 0 {
		b.l.Printf("%s", hexDump(r))
	}
	return err
}

type railDebug struct {
	id   string
	l    Logger
	next Rail
}

func (r *railDebug) Enable() error {
	r.l.Printf("%5s >>  enable", r.id)
	err := r.next.Enable()
	r.l.Printf("%5s <<  enable %+v", r.id, err)
	return err
}

func (r *railDebug) Disable() error {
	r.l.Printf("%5s >>  disable", r.id)
	err := r.next.Disable()
	r.l.Printf("%5s <<  disable %+v", r.id, err)
	return err
}

func (r *railDebug) Release() error {
	return r.next.Release()
}
