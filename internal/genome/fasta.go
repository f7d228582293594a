package genome

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Records holds parsed FASTA sequences keyed by header id, remembering the
// order in which ids were first seen.
type Records struct {
	ids  []string
	seqs map[string]string
}

func newRecords() *Records {
	return &Records{seqs: make(map[string]string)}
}

func (r *Records) put(id, seq string) {
	if _, ok := r.seqs[id]; !ok {
		r.ids = append(r.ids, id)
	}
	r.seqs[id] = seq
}

// Len returns the number of distinct records.
func (r *Records) Len() int {
	return len(r.ids)
}

// IDs returns record ids in first-seen order.
func (r *Records) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Get returns the sequence for id.
func (r *Records) Get(id string) (string, bool) {
	seq, ok := r.seqs[id]
	return seq, ok
}

// First returns the first record in file order.
func (r *Records) First() (id, seq string, ok bool) {
	if len(r.ids) == 0 {
		return "", "", false
	}
	id = r.ids[0]
	return id, r.seqs[id], true
}

// Map returns a copy of the id -> sequence mapping.
func (r *Records) Map() map[string]string {
	out := make(map[string]string, len(r.seqs))
	for k, v := range r.seqs {
		out[k] = v
	}
	return out
}

// LoadFASTA reads a FASTA file from disk, or standard input for "-". Gzip
// input is decompressed.
func LoadFASTA(path string) (*Records, error) {
	rc, err := openFile(path)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}
	defer rc.Close()

	return ParseFASTA(rc)
}

// ParseFASTA parses FASTA content.
//
// The record id is the first whitespace-delimited token of the header line.
// Sequence lines are concatenated, uppercased, and stripped of anything that
// is not A, C, G, T or N. Lines before the first header are ignored. A repeated
// id replaces the earlier sequence.
func ParseFASTA(reader io.Reader) (*Records, error) {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long sequences
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	records := newRecords()

	var currentID string
	var inRecord bool
	var currentSeq strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, ">") {
			if inRecord {
				records.put(currentID, currentSeq.String())
			}
			currentID = parseHeader(line)
			inRecord = true
			currentSeq.Reset()
			continue
		}

		if inRecord {
			appendBases(&currentSeq, line)
		}
	}

	if inRecord {
		records.put(currentID, currentSeq.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan FASTA: %w", err)
	}

	return records, nil
}

// parseHeader extracts the record id from a header line.
func parseHeader(header string) string {
	fields := strings.Fields(strings.TrimPrefix(header, ">"))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// appendBases writes the uppercased nucleotide characters of line to sb.
func appendBases(sb *strings.Builder, line string) {
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		switch c {
		case 'A', 'C', 'G', 'T', 'N':
			sb.WriteByte(c)
		}
	}
}
