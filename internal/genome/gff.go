package genome

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var nameAttr = regexp.MustCompile(`(?:Name|gene_name|locus_tag)=([^;]+)`)

// LoadGFF reads GFF3 or GTF features from disk. Files ending in .gz are
// decompressed.
func LoadGFF(path string) ([]Feature, error) {
	rc, err := openFile(path)
	if err != nil {
		return nil, fmt.Errorf("open GFF file: %w", err)
	}
	defer rc.Close()

	return ParseGFF(rc)
}

// ParseGFF parses tab-separated GFF/GTF content into features in file order.
// Comment lines, blank lines and lines with fewer than 9 fields are skipped.
func ParseGFF(reader io.Reader) ([]Feature, error) {
	scanner := bufio.NewScanner(reader)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var features []Feature
	for scanner.Scan() {
		line := scanner.Text()

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		feat, ok := parseGFFLine(line)
		if !ok {
			continue
		}
		features = append(features, feat)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GFF: %w", err)
	}

	return features, nil
}

// parseGFFLine parses a single feature line. Unparsable coordinates become 0,
// which leaves the feature unable to match any position.
func parseGFFLine(line string) (Feature, bool) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return Feature{}, false
	}

	start := parseCoord(fields[3])
	end := parseCoord(fields[4])

	return Feature{
		SeqName: fields[0],
		Type:    fields[2],
		Name:    featureName(fields[8], fields[2], fields[3]),
		Start:   start,
		End:     end,
		Strand:  parseStrand(fields[6]),
	}, true
}

func parseCoord(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// featureName pulls Name, gene_name or locus_tag out of the attribute column,
// falling back to "{type}_{start}".
func featureName(attrs, featureType, start string) string {
	m := nameAttr.FindStringSubmatch(attrs)
	if m == nil {
		return featureType + "_" + start
	}
	if decoded, err := url.PathUnescape(m[1]); err == nil {
		return decoded
	}
	return m[1]
}

// parseStrand converts a strand column to +1 or -1.
func parseStrand(s string) int8 {
	if s == "+" {
		return 1
	}
	return -1
}
