package console

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// Shape identifies which top-level layout a topic list response used.
type Shape int

const (
	// ShapeUnknown covers every layout other than the two below. It yields
	// zero topics.
	ShapeUnknown Shape = iota
	// ShapeArray is a bare JSON array of topic objects.
	ShapeArray
	// ShapeObject is a JSON object whose "topics" field holds the array.
	ShapeObject
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Partition is the size summary of one partition.
type Partition struct {
	ID        int64
	SizeBytes int64
}

// Topic is one well-formed entry of a topic list or detail response.
//
// HasSummary and HasPartitions record whether the entry carried a
// logDirSummary object and a partitions array. The collector uses them to
// decide how to measure the topic. SizeBytes is 0 when the summary lacks a
// usable totalSizeBytes.
type Topic struct {
	Name          string
	HasSummary    bool
	SizeBytes     int64
	HasPartitions bool
	Partitions    []Partition
}

// EntryIssue describes a list or partition entry that was skipped.
type EntryIssue struct {
	Index  int
	Topic  string
	Reason string
}

func (i EntryIssue) String() string {
	if i.Topic == "" {
		return fmt.Sprintf("entry %d: %s", i.Index, i.Reason)
	}
	return fmt.Sprintf("topic %q entry %d: %s", i.Topic, i.Index, i.Reason)
}

// TopicList is the normalized result of GET /api/topics.
type TopicList struct {
	Shape  Shape
	Topics []Topic
	Issues []EntryIssue
}

// TopicDetail is the normalized result of GET /api/topics/{name}.
type TopicDetail struct {
	Topic  Topic
	Issues []EntryIssue
}

// ParseTopicList normalizes a topic list body. Only invalid JSON is an
// error; unexpected layouts produce ShapeUnknown with no topics, and bad
// entries are reported as issues.
func ParseTopicList(body []byte) (*TopicList, error) {
	doc, err := decode(body)
	if err != nil {
		return nil, err
	}

	list := &TopicList{}
	var entries []any

	switch v := doc.(type) {
	case []any:
		list.Shape = ShapeArray
		entries = v
	case map[string]any:
		arr, ok := v["topics"].([]any)
		if !ok {
			return list, nil
		}
		list.Shape = ShapeObject
		entries = arr
	default:
		return list, nil
	}

	for i, raw := range entries {
		obj, ok := raw.(map[string]any)
		if !ok {
			list.Issues = append(list.Issues, EntryIssue{Index: i, Reason: "entry is not an object"})
			continue
		}
		name, ok := obj["topicName"].(string)
		if !ok || name == "" {
			list.Issues = append(list.Issues, EntryIssue{Index: i, Reason: "missing topicName"})
			continue
		}
		topic, issues := parseTopic(name, obj)
		list.Topics = append(list.Topics, topic)
		list.Issues = append(list.Issues, issues...)
	}

	return list, nil
}

// ParseTopicDetail normalizes a topic detail body for the named topic. A body
// that is not an object, or has no partitions array, yields no partitions.
func ParseTopicDetail(name string, body []byte) (*TopicDetail, error) {
	doc, err := decode(body)
	if err != nil {
		return nil, err
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return &TopicDetail{
			Topic:  Topic{Name: name},
			Issues: []EntryIssue{{Topic: name, Reason: "detail response is not an object"}},
		}, nil
	}

	topic, issues := parseTopic(name, obj)
	return &TopicDetail{Topic: topic, Issues: issues}, nil
}

func parseTopic(name string, obj map[string]any) (Topic, []EntryIssue) {
	t := Topic{Name: name}

	if summary, ok := obj["logDirSummary"].(map[string]any); ok {
		t.HasSummary = true
		t.SizeBytes = sizeOf(summary)
	}

	raw, ok := obj["partitions"].([]any)
	if !ok {
		return t, nil
	}
	t.HasPartitions = true

	var issues []EntryIssue
	for i, p := range raw {
		pobj, ok := p.(map[string]any)
		if !ok {
			issues = append(issues, EntryIssue{Index: i, Topic: name, Reason: "partition is not an object"})
			continue
		}
		id, ok := integer(pobj["id"])
		if !ok || id < 0 {
			issues = append(issues, EntryIssue{Index: i, Topic: name, Reason: "partition has no valid id"})
			continue
		}
		var size int64
		if summary, ok := pobj["logDirSummary"].(map[string]any); ok {
			size = sizeOf(summary)
		}
		t.Partitions = append(t.Partitions, Partition{ID: id, SizeBytes: size})
	}

	return t, issues
}

// sizeOf reads totalSizeBytes from a logDirSummary object. Absent,
// non-numeric and negative values count as 0.
func sizeOf(summary map[string]any) int64 {
	n, ok := integer(summary["totalSizeBytes"])
	if !ok || n < 0 {
		return 0
	}
	return n
}

func integer(v any) (int64, bool) {
	num, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if n, err := num.Int64(); err == nil {
		return n, true
	}
	f, err := num.Float64()
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}
	return doc, nil
}
