package domain

import "strconv"

// ChangeRecord is one changed leaf produced during a single poll.
type ChangeRecord struct {
	Path  string
	Value string
}

// Batch is the canonical unit written to a change log: every change found
// by one poll, stamped with the session number and session time at which it
// was observed.
type Batch struct {
	SessionNum  int
	SessionTime float64
	Records     []ChangeRecord
}

func (b *Batch) Add(path, value string) {
	b.Records = append(b.Records, ChangeRecord{Path: path, Value: value})
}

func (b *Batch) Len() int { return len(b.Records) }

func (b *Batch) Empty() bool { return len(b.Records) == 0 }

// Stamp sets the batch header.
func (b *Batch) Stamp(sessionNum int, sessionTime float64) {
	b.SessionNum = sessionNum
	b.SessionTime = sessionTime
}

// Reset clears the batch but keeps the record slice capacity for the next poll.
func (b *Batch) Reset() {
	b.SessionNum = 0
	b.SessionTime = 0
	b.Records = b.Records[:0]
}

// AppendText renders the batch in change-log form:
//
//	<blank line>
//	SessionTime = {sessionNum}:{sessionTime:0.0000}
//	<path> = <value>
func (b *Batch) AppendText(dst []byte) []byte {
	dst = append(dst, '\n')
	dst = append(dst, "SessionTime = "...)
	dst = strconv.AppendInt(dst, int64(b.SessionNum), 10)
	dst = append(dst, ':')
	dst = strconv.AppendFloat(dst, b.SessionTime, 'f', 4, 64)
	dst = append(dst, '\n')
	for _, r := range b.Records {
		dst = append(dst, r.Path...)
		dst = append(dst, " = "...)
		dst = append(dst, r.Value...)
		dst = append(dst, '\n')
	}
	return dst
}

// TextSize estimates the rendered size so callers can allocate once.
func (b *Batch) TextSize() int {
	n := 48
	for _, r := range b.Records {
		n += len(r.Path) + len(r.Value) + 4
	}
	return n
}
