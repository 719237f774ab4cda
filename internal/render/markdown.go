package render

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// rangeSeparator goes between consecutive days of a multi-day export.
const rangeSeparator = "\n---\n\n"

// Markdown renders doc as YAML front matter followed by the entries.
func Markdown(doc Document, now time.Time) ([]byte, error) {
	front, err := frontMatter(doc, now)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(front)
	buf.WriteString("---\n\n")
	fmt.Fprintf(&buf, "# Journal for %s\n", doc.State.Date)

	for _, e := range doc.State.Entries {
		fmt.Fprintf(&buf, "\n## %s %s\n", e.Timestamp, e.Text)
		if e.Image != "" {
			fmt.Fprintf(&buf, "\n![entry image](%s)\n", dataURI(e.Image))
		}
	}
	return buf.Bytes(), nil
}

// MarkdownRange renders each day in order, separated by a horizontal rule.
func MarkdownRange(docs []Document, now time.Time) ([]byte, error) {
	parts := make([][]byte, 0, len(docs))
	for _, doc := range docs {
		md, err := Markdown(doc, now)
		if err != nil {
			return nil, err
		}
		parts = append(parts, md)
	}
	return bytes.Join(parts, []byte(rangeSeparator)), nil
}

// frontMatter builds the metadata block. Keys are emitted in a fixed order
// and empty sections are left out.
func frontMatter(doc Document, now time.Time) ([]byte, error) {
	s := doc.State
	root := mapping()

	if doc.DisplayName != "" {
		add(root, "user", str(doc.DisplayName))
	}
	add(root, "date", str(s.Date))

	if len(doc.Profile) > 0 {
		profile := mapping()
		for _, p := range doc.Profile {
			add(profile, p.Key, str(p.Value))
		}
		add(root, "profile", profile)
	}

	if s.PreviousBedtime != "" {
		add(root, "previous_bedtime", str(s.PreviousBedtime))
	}
	if s.WakeTime != "" {
		add(root, "wake_time", str(s.WakeTime))
	}

	if len(s.TimeSinceTrackers) > 0 {
		list := sequence()
		for _, t := range s.TimeSinceTrackers {
			item := mapping()
			add(item, "name", str(t.Name))
			add(item, "since", str(t.ReferenceDate))
			add(item, "elapsed", str(timeSince(t, now)))
			list.Content = append(list.Content, item)
		}
		add(root, "time_since", list)
	}

	if len(s.DurationTrackers) > 0 {
		list := sequence()
		for _, t := range s.DurationTrackers {
			item := mapping()
			add(item, "name", str(t.Name))
			add(item, "seconds", integer(t.Value))
			add(item, "formatted", str(FormatDuration(t.Value)))
			if t.IsRunning {
				add(item, "running", boolean(true))
				add(item, "live_elapsed", str(FormatDuration(LiveElapsedMs(t, now)/1000)))
			}
			list.Content = append(list.Content, item)
		}
		add(root, "duration_trackers", list)
	}

	if len(s.CustomCounters) > 0 {
		list := sequence()
		for _, c := range s.CustomCounters {
			item := mapping()
			add(item, "name", str(c.Name))
			add(item, "value", integer(int64(c.Value)))
			list.Content = append(list.Content, item)
		}
		add(root, "counters", list)
	}

	fields := mapping()
	for _, f := range s.TemplateFields {
		if f.Value != "" {
			add(fields, f.Key, str(f.Value))
		}
	}
	if len(fields.Content) > 0 {
		add(root, "fields", fields)
	}

	// One-off keys may repeat within a day, so they are listed rather than mapped.
	oneOff := sequence()
	for _, f := range s.OneOffFields {
		if f.Value != "" {
			item := mapping()
			add(item, "key", str(f.Key))
			add(item, "value", str(f.Value))
			oneOff.Content = append(oneOff.Content, item)
		}
	}
	if len(oneOff.Content) > 0 {
		add(root, "one_off_fields", oneOff)
	}

	if len(s.Tasks) > 0 {
		list := sequence()
		for _, t := range s.Tasks {
			item := mapping()
			add(item, "text", str(t.Text))
			add(item, "done", boolean(t.Done))
			list.Content = append(list.Content, item)
		}
		add(root, "tasks", list)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}
	return buf.Bytes(), nil
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func sequence() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

// str is always double quoted so user text round-trips with escapes.
func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v, Style: yaml.DoubleQuotedStyle}
}

func integer(v int64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v, 10)}
}

func boolean(v bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
}

func add(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}
