package scanner

import (
	"strings"

	"mixref/internal/common"
)

// TargetRecord is one (owner, target) pair extracted from one annotated
// class. Both names are slash-delimited internal class names. Records are
// append-only and never deduplicated; a pair declared twice appears twice.
type TargetRecord struct {
	Owner  string
	Target string
}

// Line formats the record as the manifest's wire form: owner, a tab, target.
// Internal names never contain tabs or newlines, so no quoting is needed.
func (r TargetRecord) Line() string {
	return r.Owner + "\t" + r.Target
}

// ParseRecordLine recovers a TargetRecord from one manifest line.
func ParseRecordLine(line string) (TargetRecord, error) {
	owner, target, ok := strings.Cut(line, "\t")
	if !ok {
		return TargetRecord{}, common.NewError("malformed record line: %q", line)
	}
	return TargetRecord{Owner: owner, Target: target}, nil
}
