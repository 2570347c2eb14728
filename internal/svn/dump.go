package svn

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrDeltaDump is returned for dumps created with --deltas.
var ErrDeltaDump = errors.New("deltified dumps are not supported, dump without --deltas")

// Node actions.
const (
	ActionChange  = "change"
	ActionAdd     = "add"
	ActionDelete  = "delete"
	ActionReplace = "replace"
)

// Node kinds.
const (
	KindFile = "file"
	KindDir  = "dir"
)

// content locates a file's text in the dump.
type content struct {
	offset int64
	length int64
}

// Node is one change record of a revision.
type Node struct {
	Path         string
	Kind         string // empty for most deletes
	Action       string
	CopyFromRev  int
	CopyFromPath string
	// Props is nil when the record carries no property block.
	Props map[string]string
	text  *content
}

// IsCopy reports whether the node was copied with history.
func (n *Node) IsCopy() bool {
	return n.CopyFromRev > 0
}

// HasText reports whether the record carries file contents.
func (n *Node) HasText() bool {
	return n.text != nil
}

// Revision is a parsed revision record.
type Revision struct {
	Number int
	Props  map[string]string
	Nodes  []Node
}

// dumpReader tracks the byte offset of everything it consumes.
type dumpReader struct {
	r   *bufio.Reader
	pos int64
}

func newDumpReader(r io.Reader) *dumpReader {
	return &dumpReader{r: bufio.NewReaderSize(r, 64*1024)}
}

func (d *dumpReader) readLine() (string, error) {
	line, err := d.r.ReadString('\n')
	d.pos += int64(len(line))
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSuffix(line, "\n"), nil
		}
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// read returns the next n bytes. The buffer grows with the data actually
// read, so a bogus length in a corrupt dump fails at EOF instead of
// allocating up front.
func (d *dumpReader) read(n int64) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("offset %d: negative length %d", d.pos, n)
	}
	buf, err := io.ReadAll(io.LimitReader(d.r, n))
	d.pos += int64(len(buf))
	if err == nil && int64(len(buf)) < n {
		err = io.ErrUnexpectedEOF
	}
	return buf, err
}

func (d *dumpReader) skip(n int64) error {
	for n > 0 {
		chunk := min(n, 1<<30)
		m, err := d.r.Discard(int(chunk))
		d.pos += int64(m)
		if err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// headers reads "Key: value" lines up to the first empty line. Leading
// empty lines are skipped. It returns io.EOF at the end of the stream.
func (d *dumpReader) headers() (map[string]string, error) {
	h := make(map[string]string)
	for {
		line, err := d.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) && len(h) > 0 {
				return h, nil
			}
			return nil, err
		}
		if line == "" {
			if len(h) == 0 {
				continue
			}
			return h, nil
		}
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			return nil, fmt.Errorf("offset %d: malformed header %q", d.pos, line)
		}
		h[key] = value
	}
}

func intHeader(h map[string]string, key string) (int64, error) {
	v, ok := h[key]
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

// parseProps decodes a property block.
func parseProps(data []byte) (map[string]string, error) {
	props := make(map[string]string)
	r := newDumpReader(bytes.NewReader(data))
	// field reads n bytes plus the newline that ends them.
	field := func(line string, n int64) ([]byte, error) {
		if n < 0 || n > int64(len(data))-r.pos-1 {
			return nil, fmt.Errorf("property block: malformed line %q", line)
		}
		b, err := r.read(n + 1)
		if err != nil {
			return nil, fmt.Errorf("property block: %w", err)
		}
		return b[:n], nil
	}
	for {
		line, err := r.readLine()
		if err != nil {
			return nil, fmt.Errorf("property block: %w", io.ErrUnexpectedEOF)
		}
		if line == "PROPS-END" {
			return props, nil
		}

		kind, length, ok := strings.Cut(line, " ")
		n, convErr := strconv.ParseInt(length, 10, 64)
		if !ok || convErr != nil || (kind != "K" && kind != "D") {
			return nil, fmt.Errorf("property block: malformed line %q", line)
		}
		key, err := field(line, n)
		if err != nil {
			return nil, err
		}
		name := string(key)
		if kind == "D" {
			delete(props, name)
			continue
		}

		line, err = r.readLine()
		if err != nil {
			return nil, fmt.Errorf("property block: %w", err)
		}
		vkind, vlength, ok := strings.Cut(line, " ")
		vn, convErr := strconv.ParseInt(vlength, 10, 64)
		if !ok || convErr != nil || vkind != "V" {
			return nil, fmt.Errorf("property block: malformed line %q", line)
		}
		value, err := field(line, vn)
		if err != nil {
			return nil, err
		}
		props[name] = string(value)
	}
}

// parseDump reads every record of a dump. fn is called once per revision,
// in stream order.
func parseDump(r io.Reader, fn func(Revision) error) error {
	d := newDumpReader(r)

	var cur *Revision
	flush := func() error {
		if cur == nil {
			return nil
		}
		rev := *cur
		cur = nil
		return fn(rev)
	}

	for {
		h, err := d.headers()
		if errors.Is(err, io.EOF) {
			return flush()
		}
		if err != nil {
			return err
		}

		switch {
		case hasKey(h, "SVN-fs-dump-format-version"):
			if v := h["SVN-fs-dump-format-version"]; v != "2" && v != "3" {
				return fmt.Errorf("unsupported dump format version %s", v)
			}

		case hasKey(h, "UUID"):

		case hasKey(h, "Revision-number"):
			if err := flush(); err != nil {
				return err
			}
			num, err := strconv.Atoi(h["Revision-number"])
			if err != nil {
				return fmt.Errorf("invalid Revision-number %q", h["Revision-number"])
			}
			props, err := readBody(d, h)
			if err != nil {
				return fmt.Errorf("r%d: %w", num, err)
			}
			if props == nil {
				props = map[string]string{}
			}
			cur = &Revision{Number: num, Props: props}

		case hasKey(h, "Node-path"):
			if cur == nil {
				return fmt.Errorf("offset %d: node record before any revision", d.pos)
			}
			node, err := readNode(d, h)
			if err != nil {
				return fmt.Errorf("r%d %s: %w", cur.Number, h["Node-path"], err)
			}
			cur.Nodes = append(cur.Nodes, node)

		default:
			return fmt.Errorf("offset %d: unknown record", d.pos)
		}
	}
}

func hasKey(h map[string]string, key string) bool {
	_, ok := h[key]
	return ok
}

// readBody reads the property block of a record and skips any text.
func readBody(d *dumpReader, h map[string]string) (map[string]string, error) {
	props, _, err := readContent(d, h)
	return props, err
}

// readContent reads a record's property block and records where its text
// lives, then skips past the text.
func readContent(d *dumpReader, h map[string]string) (map[string]string, *content, error) {
	if h["Text-delta"] == "true" || h["Prop-delta"] == "true" {
		return nil, nil, ErrDeltaDump
	}

	propLen, err := intHeader(h, "Prop-content-length")
	if err != nil {
		return nil, nil, err
	}
	textLen, err := intHeader(h, "Text-content-length")
	if err != nil {
		return nil, nil, err
	}
	total, err := intHeader(h, "Content-length")
	if err != nil {
		return nil, nil, err
	}
	if total == 0 {
		total = propLen + textLen
	}
	if total != propLen+textLen {
		return nil, nil, fmt.Errorf("Content-length %d does not match %d+%d", total, propLen, textLen)
	}

	var props map[string]string
	if hasKey(h, "Prop-content-length") {
		data, err := d.read(propLen)
		if err != nil {
			return nil, nil, err
		}
		if props, err = parseProps(data); err != nil {
			return nil, nil, err
		}
	}

	var text *content
	if hasKey(h, "Text-content-length") {
		text = &content{offset: d.pos, length: textLen}
		if err := d.skip(textLen); err != nil {
			return nil, nil, err
		}
	}
	return props, text, nil
}

func readNode(d *dumpReader, h map[string]string) (Node, error) {
	n := Node{
		Path:   strings.Trim(h["Node-path"], "/"),
		Kind:   h["Node-kind"],
		Action: h["Node-action"],
	}
	switch n.Action {
	case ActionChange, ActionAdd, ActionDelete, ActionReplace:
	default:
		return n, fmt.Errorf("invalid Node-action %q", n.Action)
	}

	if v, ok := h["Node-copyfrom-rev"]; ok {
		rev, err := strconv.Atoi(v)
		if err != nil {
			return n, fmt.Errorf("invalid Node-copyfrom-rev %q", v)
		}
		n.CopyFromRev = rev
		n.CopyFromPath = strings.Trim(h["Node-copyfrom-path"], "/")
	}

	props, text, err := readContent(d, h)
	if err != nil {
		return n, err
	}
	n.Props = props
	n.text = text
	return n, nil
}
