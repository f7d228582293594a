package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-mutsim/internal/diff"
)

// Symbolic allele for a deletion with no flanking reference base.
const symbolicDeletion = "<DEL>"

var vcfHeader = []string{
	"##fileformat=VCFv4.2",
	"##source=vibe-mutsim",
	`##INFO=<ID=TYPE,Number=1,Type=String,Description="Difference type: substitution, insertion or deletion">`,
	`##INFO=<ID=LEN,Number=1,Type=Integer,Description="Number of inserted or deleted bases">`,
	`##ALT=<ID=DEL,Description="Deletion of every reference base">`,
}

// VCFWriter writes positional differences against a reference sequence as
// VCF records. Runs of insertions or deletions are merged into one record
// anchored on the preceding reference base.
type VCFWriter struct {
	w     *bufio.Writer
	chrom string
	ref   string
}

// NewVCFWriter creates a VCF writer for differences against ref, reported on
// contig chrom.
func NewVCFWriter(w io.Writer, chrom, ref string) *VCFWriter {
	return &VCFWriter{
		w:     bufio.NewWriter(w),
		chrom: chrom,
		ref:   ref,
	}
}

// WriteHeader writes the meta-information lines and the #CHROM line.
func (vw *VCFWriter) WriteHeader() error {
	lines := append([]string{}, vcfHeader[:2]...)
	lines = append(lines, fmt.Sprintf("##contig=<ID=%s,length=%d>", vw.chrom, len(vw.ref)))
	lines = append(lines, vcfHeader[2:]...)
	lines = append(lines, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO")
	for _, line := range lines {
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteRecords writes records, which must be in position order as returned by
// diff.Detect.
func (vw *VCFWriter) WriteRecords(records []diff.Record) error {
	for i := 0; i < len(records); {
		r := records[i]
		if r.Type == diff.Substitution {
			if err := vw.line(r.Pos, r.Ref, r.Alt, "TYPE=substitution"); err != nil {
				return err
			}
			i++
			continue
		}

		// Collect the contiguous run of this indel type.
		j := i + 1
		for j < len(records) && records[j].Type == r.Type && records[j].Pos == records[j-1].Pos+1 {
			j++
		}
		if err := vw.writeIndel(records[i:j]); err != nil {
			return err
		}
		i = j
	}
	return nil
}

func (vw *VCFWriter) writeIndel(run []diff.Record) error {
	first := run[0]
	var bases strings.Builder
	for _, r := range run {
		if first.Type == diff.Insertion {
			bases.WriteString(r.Alt)
		} else {
			bases.WriteString(r.Ref)
		}
	}
	info := fmt.Sprintf("TYPE=%s;LEN=%d", first.Type, len(run))

	anchorPos := first.Pos - 1
	if anchorPos < 1 || anchorPos > len(vw.ref) {
		// Nothing in the reference precedes the run.
		if first.Type == diff.Insertion {
			return vw.line(0, "N", "N"+bases.String(), info)
		}
		return vw.line(first.Pos, bases.String(), symbolicDeletion, info)
	}

	anchor := string(vw.ref[anchorPos-1])
	if first.Type == diff.Insertion {
		return vw.line(anchorPos, anchor, anchor+bases.String(), info)
	}
	return vw.line(anchorPos, anchor+bases.String(), anchor, info)
}

func (vw *VCFWriter) line(pos int, ref, alt, info string) error {
	_, err := vw.w.WriteString(strings.Join([]string{
		vw.chrom, strconv.Itoa(pos), ".", ref, alt, ".", "PASS", info,
	}, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (vw *VCFWriter) Flush() error {
	return vw.w.Flush()
}
