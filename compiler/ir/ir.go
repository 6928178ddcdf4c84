// Package ir defines the executable form of a block program.
// It knows nothing about the editor: an IR program is a flat list of
// instructions where only requests own a nested list (their assertions).
package ir

// Op names an instruction in the canonical encoding.
type Op string

const (
	OpRequest        Op = "request"
	OpAuth           Op = "auth"
	OpAssertStatus   Op = "assert_status"
	OpAssertContains Op = "assert_contains"
	OpAssertJSONKey  Op = "assert_json_key"
	OpWait           Op = "wait"
	OpLog            Op = "log"
)

// Instr is one executable statement. The set is closed: only the types in
// this package implement it.
type Instr interface {
	Op() Op
	// Block is the id of the block the instruction came from.
	Block() string
	isInstr()
}

// Program is the assembled, ordered instruction list.
type Program struct {
	IRVersion string
	Name      string
	Instrs    []Instr
}

// Len counts instructions including those nested in requests.
func (p *Program) Len() int {
	return countInstrs(p.Instrs)
}

func countInstrs(list []Instr) int {
	n := 0
	for _, in := range list {
		n++
		if r, ok := in.(*Request); ok {
			n += countInstrs(r.Assertions)
		}
	}
	return n
}

// Request performs an HTTP call and then runs Assertions against its response.
// Body is nil for GET and DELETE.
type Request struct {
	BlockID    string
	Method     string
	URL        Expr
	Headers    Expr
	Body       Expr
	Assertions []Instr
}

// Auth adds an Authorization header to every later request.
type Auth struct {
	BlockID string
	Scheme  string
	Token   Expr
	Secret  Expr
}

type AssertStatus struct {
	BlockID  string
	Expected int
}

type AssertContains struct {
	BlockID string
	Content Expr
}

// AssertJSONKey compares one top-level key of the last JSON body.
type AssertJSONKey struct {
	BlockID string
	Key     Expr
	Value   Expr
}

type Wait struct {
	BlockID string
	Seconds Expr
}

type Log struct {
	BlockID string
	Message Expr
}

func (*Request) Op() Op        { return OpRequest }
func (*Auth) Op() Op           { return OpAuth }
func (*AssertStatus) Op() Op   { return OpAssertStatus }
func (*AssertContains) Op() Op { return OpAssertContains }
func (*AssertJSONKey) Op() Op  { return OpAssertJSONKey }
func (*Wait) Op() Op           { return OpWait }
func (*Log) Op() Op            { return OpLog }

func (i *Request) Block() string        { return i.BlockID }
func (i *Auth) Block() string           { return i.BlockID }
func (i *AssertStatus) Block() string   { return i.BlockID }
func (i *AssertContains) Block() string { return i.BlockID }
func (i *AssertJSONKey) Block() string  { return i.BlockID }
func (i *Wait) Block() string           { return i.BlockID }
func (i *Log) Block() string            { return i.BlockID }

func (*Request) isInstr()        {}
func (*Auth) isInstr()           {}
func (*AssertStatus) isInstr()   {}
func (*AssertContains) isInstr() {}
func (*AssertJSONKey) isInstr()  {}
func (*Wait) isInstr()           {}
func (*Log) isInstr()            {}
