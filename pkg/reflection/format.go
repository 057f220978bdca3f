package reflection

import (
	"strings"
)

// FormatOption narrows what FormatReflections renders.
type FormatOption func(*formatOptions)

type formatOptions struct {
	style   bool
	content bool
}

// OnlyStyle renders just the style guidelines block.
func OnlyStyle() FormatOption {
	return func(o *formatOptions) {
		o.style = true
		o.content = false
	}
}

// OnlyContent renders just the user facts block.
func OnlyContent() FormatOption {
	return func(o *formatOptions) {
		o.style = false
		o.content = true
	}
}

// FormatReflections renders stored reflections for inclusion in a prompt.
func FormatReflections(r Reflections, opts ...FormatOption) string {
	o := formatOptions{style: true, content: true}
	for _, opt := range opts {
		opt(&o)
	}

	var blocks []string
	if o.style {
		blocks = append(blocks, "The following is a list of style guidelines previously generated by you:\n"+
			"<style-guidelines>\n"+bulletList(r.StyleRules, "No style guidelines found.")+"\n</style-guidelines>")
	}
	if o.content {
		blocks = append(blocks, "The following is a list of memories/facts you previously generated about the user:\n"+
			"<user-facts>\n"+bulletList(r.Content, "No memories/facts found.")+"\n</user-facts>")
	}
	return strings.Join(blocks, "\n\n")
}

func bulletList(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

// FormatConversation renders messages as role-tagged blocks separated by a
// blank line, preserving order.
func FormatConversation(messages []Message) string {
	blocks := make([]string, len(messages))
	for i, msg := range messages {
		blocks[i] = "<" + msg.Role + ">\n" + msg.Content + "\n</" + msg.Role + ">"
	}
	return strings.Join(blocks, "\n\n")
}
