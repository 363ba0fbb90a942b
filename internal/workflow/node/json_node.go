package node

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind 通用节点类型
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "array"
	case KindMapping:
		return "object"
	default:
		return "unknown"
	}
}

// Node 模型输出解析后的无类型 JSON 树。
// Mapping 保留键的出现顺序；重复键保留首次出现的位置，取最后一次的值。
type Node struct {
	Kind   Kind
	Bool   bool
	Number json.Number
	Str    string
	Items  []*Node
	Fields *orderedmap.OrderedMap[string, *Node]
}

func NewNull() *Node { return &Node{Kind: KindNull} }

func NewBool(b bool) *Node { return &Node{Kind: KindBool, Bool: b} }

func NewString(s string) *Node { return &Node{Kind: KindString, Str: s} }

func NewNumber(n json.Number) *Node { return &Node{Kind: KindNumber, Number: n} }

func NewSequence(items ...*Node) *Node {
	return &Node{Kind: KindSequence, Items: items}
}

func NewMapping() *Node {
	return &Node{Kind: KindMapping, Fields: orderedmap.New[string, *Node]()}
}

func (n *Node) IsMapping() bool { return n != nil && n.Kind == KindMapping }

func (n *Node) IsSequence() bool { return n != nil && n.Kind == KindSequence }

// Get 读取 Mapping 字段
func (n *Node) Get(key string) (*Node, bool) {
	if !n.IsMapping() {
		return nil, false
	}
	return n.Fields.Get(key)
}

// Has 判断 Mapping 是否包含字段（值为 null 也算存在）
func (n *Node) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Set 写入 Mapping 字段；非 Mapping 节点忽略
func (n *Node) Set(key string, v *Node) {
	if !n.IsMapping() {
		return
	}
	n.Fields.Set(key, v)
}

// Keys 按出现顺序返回 Mapping 的键
func (n *Node) Keys() []string {
	if !n.IsMapping() {
		return nil
	}
	keys := make([]string, 0, n.Fields.Len())
	for pair := n.Fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len Mapping 字段数或 Sequence 元素数
func (n *Node) Len() int {
	switch {
	case n.IsMapping():
		return n.Fields.Len()
	case n.IsSequence():
		return len(n.Items)
	default:
		return 0
	}
}

// Float 数值节点转 float64
func (n *Node) Float() (float64, bool) {
	if n == nil || n.Kind != KindNumber {
		return 0, false
	}
	f, err := n.Number.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// maxExactInt float64 可精确表示的最大整数
const maxExactInt = 1 << 53

// CanonicalizeIntegers 把值为整数的小数或指数字面量（15.0、1e2）原地改写为整数字面量，
// 真正的小数保持不变
func CanonicalizeIntegers(n *Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindNumber:
		lit := n.Number.String()
		if !strings.ContainsAny(lit, ".eE") {
			return
		}
		f, err := n.Number.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > maxExactInt {
			return
		}
		n.Number = json.Number(strconv.FormatInt(int64(f), 10))
	case KindSequence:
		for _, item := range n.Items {
			CanonicalizeIntegers(item)
		}
	case KindMapping:
		for pair := n.Fields.Oldest(); pair != nil; pair = pair.Next() {
			CanonicalizeIntegers(pair.Value)
		}
	}
}

// MarshalJSON 按键顺序输出
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) encode(buf *bytes.Buffer) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	switch n.Kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if n.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(n.Number.String())
	case KindString:
		b, err := json.Marshal(n.Str)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindSequence:
		buf.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMapping:
		buf.WriteByte('{')
		i := 0
		for pair := n.Fields.Oldest(); pair != nil; pair = pair.Next() {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(pair.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := pair.Value.encode(buf); err != nil {
				return err
			}
			i++
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown node kind %d", n.Kind)
	}
	return nil
}

// ParseError JSON 解析失败，带位置
type ParseError struct {
	Offset int64
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v (line %d, column %d, offset %d)", e.Err, e.Line, e.Column, e.Offset)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var errTrailingData = errors.New("unexpected data after top-level value")

// ParseNode 将候选文本解析为 Node 树。
// 只接受恰好一个 JSON 值，尾部的非空白内容视为失败。
func ParseNode(s string) (*Node, *ParseError) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	root, err := decodeValue(dec)
	if err != nil {
		return nil, newParseError(s, dec, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errTrailingData
		}
		return nil, newParseError(s, dec, err)
	}
	return root, nil
}

func decodeValue(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMapping()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, unexpectedEOF(err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key must be a string, got %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				m.Fields.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, unexpectedEOF(err)
			}
			return m, nil
		case '[':
			seq := NewSequence()
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				seq.Items = append(seq.Items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, unexpectedEOF(err)
			}
			return seq, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	case string:
		return NewString(t), nil
	case json.Number:
		return NewNumber(t), nil
	case bool:
		return NewBool(t), nil
	case nil:
		return NewNull(), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

func newParseError(s string, dec *json.Decoder, err error) *ParseError {
	offset := dec.InputOffset()
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		offset = syntaxErr.Offset
	}
	if offset > int64(len(s)) {
		offset = int64(len(s))
	}
	line, col := lineColumn(s, int(offset))
	return &ParseError{Offset: offset, Line: line, Column: col, Err: err}
}

// lineColumn 字节偏移转 1 起始的行列号
func lineColumn(s string, offset int) (int, int) {
	line, col := 1, 1
	for i, r := range s {
		if i >= offset {
			break
		}
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
