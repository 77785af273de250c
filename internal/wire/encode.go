package wire

import (
	"math"
	"strconv"
)

// Encode serializes a frame to its wire form.
func Encode(f Frame) ([]byte, error) {
	return appendFrame(nil, f)
}

func appendFrame(buf []byte, f Frame) ([]byte, error) {
	switch v := f.(type) {
	case InlineString:
		buf = append(buf, '+')
		buf = append(buf, v...)
		return appendCRLF(buf), nil
	case ErrorFrame:
		buf = append(buf, '-')
		buf = append(buf, v...)
		return appendCRLF(buf), nil
	case Integer:
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(v), 10)
		return appendCRLF(buf), nil
	case Float:
		buf = append(buf, ',')
		buf = appendFloat(buf, float64(v))
		return appendCRLF(buf), nil
	case Boolean:
		buf = append(buf, '#')
		if v {
			buf = append(buf, 't')
		} else {
			buf = append(buf, 'f')
		}
		return appendCRLF(buf), nil
	case BinaryString:
		buf = append(buf, '$')
		if v.Null {
			buf = append(buf, '-', '1')
			return appendCRLF(buf), nil
		}
		buf = strconv.AppendInt(buf, int64(len(v.Bytes)), 10)
		buf = appendCRLF(buf)
		buf = append(buf, v.Bytes...)
		return appendCRLF(buf), nil
	case Array:
		buf = append(buf, '*')
		if v.Null {
			buf = append(buf, '-', '1')
			return appendCRLF(buf), nil
		}
		buf = strconv.AppendInt(buf, int64(len(v.Items)), 10)
		buf = appendCRLF(buf)
		var err error
		for _, item := range v.Items {
			buf, err = appendFrame(buf, item)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	case Dictionary:
		buf = append(buf, '%')
		buf = strconv.AppendInt(buf, int64(len(v.Entries)), 10)
		buf = appendCRLF(buf)
		var err error
		for _, e := range v.Entries {
			buf, err = appendFrame(buf, e.Key)
			if err != nil {
				return nil, err
			}
			buf, err = appendFrame(buf, e.Value)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	case ZSet:
		buf = append(buf, '~')
		buf = strconv.AppendInt(buf, int64(len(v.Pairs)), 10)
		buf = appendCRLF(buf)
		for _, p := range v.Pairs {
			buf = append(buf, '+')
			buf = append(buf, p.Member...)
			buf = appendCRLF(buf)
			buf = append(buf, ',')
			buf = appendFloat(buf, p.Score)
			buf = appendCRLF(buf)
		}
		return buf, nil
	default:
		return nil, unexpectedFrameType(0)
	}
}

func appendCRLF(buf []byte) []byte { return append(buf, '\r', '\n') }

func appendFloat(buf []byte, f float64) []byte {
	switch {
	case math.IsInf(f, 1):
		return append(buf, "inf"...)
	case math.IsInf(f, -1):
		return append(buf, "-inf"...)
	case math.IsNaN(f):
		return append(buf, "nan"...)
	default:
		return strconv.AppendFloat(buf, f, 'g', -1, 64)
	}
}
