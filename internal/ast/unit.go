package ast

// Labels is an insertion-ordered name → label map.
type Labels struct {
	keys []string
	m    map[string]*Label
}

func NewLabels() *Labels {
	return &Labels{m: make(map[string]*Label)}
}

// Put stores l. A name seen before keeps its first position and takes the
// new value. It reports whether the name already existed.
func (ls *Labels) Put(l *Label) bool {
	_, exists := ls.m[l.Name]
	if !exists {
		ls.keys = append(ls.keys, l.Name)
	}
	ls.m[l.Name] = l
	return exists
}

func (ls *Labels) Get(name string) (*Label, bool) {
	l, ok := ls.m[name]
	return l, ok
}

func (ls *Labels) Len() int { return len(ls.keys) }

// Each visits labels in definition order.
func (ls *Labels) Each(fn func(i int, l *Label)) {
	for i, k := range ls.keys {
		fn(i, ls.m[k])
	}
}

// Unit is one translation unit. Stages fill it in order: the parser sets
// Stmts, Insts and Labels; the encoder sets Text, Offsets and Relocs; the
// table builder sets the remaining fields.
type Unit struct {
	File   string
	Stmts  []Stmt
	Insts  []*Instruction
	Labels *Labels

	Text    []byte
	Offsets []int
	Relocs  []PendingReloc

	Symtab   []byte
	Strtab   []byte
	SymIndex map[string]int
	RelaText []byte
}

func NewUnit(file string) *Unit {
	return &Unit{File: file, Labels: NewLabels()}
}

// InstLen is the encoded length of instruction i.
func (u *Unit) InstLen(i int) int {
	if i+1 < len(u.Offsets) {
		return u.Offsets[i+1] - u.Offsets[i]
	}
	return len(u.Text) - u.Offsets[i]
}
