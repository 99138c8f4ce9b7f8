package model

import (
	"strconv"
	"strings"
)

// SegmentKind 路径段类型
type SegmentKind int

const (
	// SegmentKey 对象键
	SegmentKey SegmentKind = iota
	// SegmentSlot 数组模板位，不指向具体元素
	SegmentSlot
	// SegmentIndex 数组中的具体元素
	SegmentIndex
)

// Segment 路径中的一段
type Segment struct {
	Kind  SegmentKind
	Key   string
	Index int
}

func K(key string) Segment {
	return Segment{Kind: SegmentKey, Key: key}
}

func Slot() Segment {
	return Segment{Kind: SegmentSlot}
}

func Index(i int) Segment {
	return Segment{Kind: SegmentIndex, Index: i}
}

// IsArray 判断是否为数组段
func (s Segment) IsArray() bool {
	return s.Kind == SegmentSlot || s.Kind == SegmentIndex
}

// Path 对象键与数组位交替组成的访问路径
type Path []Segment

// Append 返回追加后的新路径，不修改原路径
func (p Path) Append(segs ...Segment) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// Template 将具体下标替换为模板位
func (p Path) Template() Path {
	out := make(Path, len(p))
	for i, seg := range p {
		if seg.Kind == SegmentIndex {
			seg = Slot()
		}
		out[i] = seg
	}
	return out
}

// LastArray 返回最后一个数组段的位置，没有时返回 -1
func (p Path) LastArray() int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i].IsArray() {
			return i
		}
	}
	return -1
}

// String 形如 items[].tags[0].name
func (p Path) String() string {
	var sb strings.Builder
	for _, seg := range p {
		switch seg.Kind {
		case SegmentKey:
			if sb.Len() > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(seg.Key)
		case SegmentSlot:
			sb.WriteString("[]")
		case SegmentIndex:
			sb.WriteByte('[')
			sb.WriteString(strconv.Itoa(seg.Index))
			sb.WriteByte(']')
		}
	}
	return sb.String()
}
