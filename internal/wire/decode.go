package wire

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/rpcpool/zumic/internal/zerr"
)

// ErrIncomplete signals that buf does not yet hold a full frame; the
// caller should read more bytes from the connection and retry with the
// larger buffer. It is the resumability hinge of the streaming decoder:
// no partial state is retained between calls, the caller just re-feeds
// from the start of the still-unconsumed bytes.
var ErrIncomplete = errors.New("wire: incomplete frame")

const (
	// DefaultMaxDepth bounds Array/Dictionary/ZSet nesting.
	DefaultMaxDepth = 32
	// DefaultMaxSize bounds a single bulk string or element count.
	DefaultMaxSize = 512 * 1024 * 1024
	// initialContainerCap bounds the slice capacity Decode pre-allocates
	// for an Array/Dictionary/ZSet before it has decoded a single element.
	// The element count on the wire is attacker-controlled and only
	// checked against MaxSize, which still permits a small input
	// ("*536870911\r\n") to claim hundreds of millions of elements;
	// pre-allocating capacity for that count would allocate gigabytes
	// before reading a single byte of actual element data. append's own
	// geometric growth handles the rest without trusting the count.
	initialContainerCap = 16
)

// Decoder decodes ZSP frames from a byte buffer, enforcing depth and size
// limits.
type Decoder struct {
	MaxDepth int
	MaxSize  int64
}

// NewDecoder creates a Decoder with the default limits.
func NewDecoder() *Decoder {
	return &Decoder{MaxDepth: DefaultMaxDepth, MaxSize: DefaultMaxSize}
}

// Decode parses a single top-level frame from buf, returning the frame
// and the number of bytes consumed. It returns ErrIncomplete if buf does
// not yet contain a complete frame, never panicking on malformed input.
func (d *Decoder) Decode(buf []byte) (Frame, int, error) {
	return d.decodeAt(buf, 0)
}

func (d *Decoder) decodeAt(buf []byte, depth int) (Frame, int, error) {
	if len(buf) < 1 {
		return nil, 0, ErrIncomplete
	}
	prefix := buf[0]
	switch prefix {
	case '+', '-':
		line, n, err := readLine(buf[1:])
		if err != nil {
			return nil, 0, err
		}
		if prefix == '+' {
			return InlineString(line), 1 + n, nil
		}
		return ErrorFrame(line), 1 + n, nil
	case ':':
		line, n, err := readLine(buf[1:])
		if err != nil {
			return nil, 0, err
		}
		v, perr := strconv.ParseInt(string(line), 10, 64)
		if perr != nil {
			return nil, 0, zerr.New(zerr.KindParse, "wire: malformed integer frame")
		}
		return Integer(v), 1 + n, nil
	case ',':
		line, n, err := readLine(buf[1:])
		if err != nil {
			return nil, 0, err
		}
		f, perr := parseFloatFrame(string(line))
		if perr != nil {
			return nil, 0, perr
		}
		return Float(f), 1 + n, nil
	case '#':
		line, n, err := readLine(buf[1:])
		if err != nil {
			return nil, 0, err
		}
		switch string(line) {
		case "t":
			return Boolean(true), 1 + n, nil
		case "f":
			return Boolean(false), 1 + n, nil
		default:
			return nil, 0, zerr.New(zerr.KindParse, "wire: malformed boolean frame")
		}
	case '$':
		return d.decodeBinaryString(buf)
	case '*':
		return d.decodeArray(buf, depth)
	case '%':
		return d.decodeDictionary(buf, depth)
	case '~':
		return d.decodeZSet(buf, depth)
	default:
		return nil, 0, zerr.New(zerr.KindParse, "wire: unknown frame prefix")
	}
}

func (d *Decoder) decodeBinaryString(buf []byte) (Frame, int, error) {
	line, n, err := readLine(buf[1:])
	if err != nil {
		return nil, 0, err
	}
	length, perr := strconv.ParseInt(string(line), 10, 64)
	if perr != nil {
		return nil, 0, zerr.New(zerr.KindParse, "wire: malformed bulk-string length")
	}
	consumed := 1 + n
	if length == -1 {
		return BinaryString{Null: true}, consumed, nil
	}
	if length < 0 || length > d.MaxSize {
		return nil, 0, zerr.New(zerr.KindParse, "wire: bulk-string length exceeds limit")
	}
	need := int(length) + 2
	if len(buf)-consumed < need {
		return nil, 0, ErrIncomplete
	}
	payload := buf[consumed : consumed+int(length)]
	if buf[consumed+int(length)] != '\r' || buf[consumed+int(length)+1] != '\n' {
		return nil, 0, zerr.New(zerr.KindParse, "wire: bulk-string missing trailing CRLF")
	}
	cp := make([]byte, length)
	copy(cp, payload)
	return BinaryString{Bytes: cp}, consumed + need, nil
}

func (d *Decoder) decodeArray(buf []byte, depth int) (Frame, int, error) {
	if depth >= d.MaxDepth {
		return nil, 0, zerr.New(zerr.KindParse, "wire: array nesting exceeds depth limit")
	}
	line, n, err := readLine(buf[1:])
	if err != nil {
		return nil, 0, err
	}
	count, perr := strconv.ParseInt(string(line), 10, 64)
	if perr != nil {
		return nil, 0, zerr.New(zerr.KindParse, "wire: malformed array count")
	}
	consumed := 1 + n
	if count == -1 {
		return Array{Null: true}, consumed, nil
	}
	if count < 0 || count > d.MaxSize {
		return nil, 0, zerr.New(zerr.KindParse, "wire: array count exceeds limit")
	}
	items := make([]Frame, 0, boundedCap(count))
	for i := int64(0); i < count; i++ {
		item, n, err := d.decodeAt(buf[consumed:], depth+1)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
		consumed += n
	}
	return Array{Items: items}, consumed, nil
}

// boundedCap clamps an attacker-controlled element count to a small
// initial slice capacity; append grows the slice geometrically from
// there as elements actually decode, so a huge claimed count without the
// bytes to back it never allocates more than initialContainerCap entries.
func boundedCap(count int64) int64 {
	if count < initialContainerCap {
		return count
	}
	return initialContainerCap
}

func (d *Decoder) decodeDictionary(buf []byte, depth int) (Frame, int, error) {
	if depth >= d.MaxDepth {
		return nil, 0, zerr.New(zerr.KindParse, "wire: dictionary nesting exceeds depth limit")
	}
	line, n, err := readLine(buf[1:])
	if err != nil {
		return nil, 0, err
	}
	count, perr := strconv.ParseInt(string(line), 10, 64)
	if perr != nil || count < 0 || count > d.MaxSize {
		return nil, 0, zerr.New(zerr.KindParse, "wire: malformed dictionary count")
	}
	consumed := 1 + n
	entries := make([]DictEntry, 0, boundedCap(count))
	for i := int64(0); i < count; i++ {
		key, n, err := d.decodeAt(buf[consumed:], depth+1)
		if err != nil {
			return nil, 0, err
		}
		consumed += n
		val, n, err := d.decodeAt(buf[consumed:], depth+1)
		if err != nil {
			return nil, 0, err
		}
		consumed += n
		entries = append(entries, DictEntry{Key: key, Value: val})
	}
	return Dictionary{Entries: entries}, consumed, nil
}

func (d *Decoder) decodeZSet(buf []byte, depth int) (Frame, int, error) {
	if depth >= d.MaxDepth {
		return nil, 0, zerr.New(zerr.KindParse, "wire: zset nesting exceeds depth limit")
	}
	line, n, err := readLine(buf[1:])
	if err != nil {
		return nil, 0, err
	}
	count, perr := strconv.ParseInt(string(line), 10, 64)
	if perr != nil || count < 0 || count > d.MaxSize {
		return nil, 0, zerr.New(zerr.KindParse, "wire: malformed zset count")
	}
	consumed := 1 + n
	pairs := make([]ZSetPair, 0, boundedCap(count))
	for i := int64(0); i < count; i++ {
		memberFrame, n, err := d.decodeAt(buf[consumed:], depth+1)
		if err != nil {
			return nil, 0, err
		}
		consumed += n
		member, ok := memberFrame.(InlineString)
		if !ok {
			return nil, 0, zerr.New(zerr.KindParse, "wire: zset member must be an inline string")
		}
		scoreFrame, n, err := d.decodeAt(buf[consumed:], depth+1)
		if err != nil {
			return nil, 0, err
		}
		consumed += n
		score, ok := scoreFrame.(Float)
		if !ok {
			return nil, 0, zerr.New(zerr.KindParse, "wire: zset score must be a float")
		}
		pairs = append(pairs, ZSetPair{Member: string(member), Score: float64(score)})
	}
	return ZSet{Pairs: pairs}, consumed, nil
}

func readLine(buf []byte) ([]byte, int, error) {
	idx := bytes.Index(buf, []byte{'\r', '\n'})
	if idx < 0 {
		return nil, 0, ErrIncomplete
	}
	return buf[:idx], idx + 2, nil
}

func parseFloatFrame(s string) (float64, error) {
	switch s {
	case "inf":
		return posInf, nil
	case "-inf":
		return negInf, nil
	case "nan":
		return nanVal, nil
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, zerr.New(zerr.KindParse, "wire: malformed float frame")
		}
		return v, nil
	}
}
