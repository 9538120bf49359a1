package services

// Filter restricts a run to a set of NIPs and skips an explicit exclusion
// list. The exclusion list is operator-supplied input (a file or flags),
// never a constant baked into the source.
type Filter struct {
	include map[string]struct{}
	exclude map[string]struct{}
	order   []string
}

func NewFilter(include, exclude []string) *Filter {
	f := &Filter{
		include: make(map[string]struct{}, len(include)),
		exclude: make(map[string]struct{}, len(exclude)),
	}
	for _, nip := range include {
		if _, dup := f.include[nip]; !dup {
			f.include[nip] = struct{}{}
			f.order = append(f.order, nip)
		}
	}
	for _, nip := range exclude {
		f.exclude[nip] = struct{}{}
	}
	return f
}

func (f *Filter) Allows(nip string) bool {
	if f == nil {
		return true
	}
	if _, banned := f.exclude[nip]; banned {
		return false
	}
	if len(f.include) == 0 {
		return true
	}
	_, ok := f.include[nip]
	return ok
}

// IncludeList returns the explicit NIP whitelist for pushing the filter into
// a query, or nil when the run covers everyone.
func (f *Filter) IncludeList() []string {
	if f == nil || len(f.include) == 0 {
		return nil
	}
	return f.order
}
