package command

import "strings"

// ReplyBuilder assembles the embed-like reply text the platform
// renders: a bold title followed by named fields.
type ReplyBuilder struct {
	b strings.Builder
}

func (r *ReplyBuilder) Title(title string) {
	r.b.WriteString("**" + title + "**")
}

func (r *ReplyBuilder) Field(name, value string) {
	r.b.WriteString("\n\n**" + name + "**\n")
	r.b.WriteString(value)
}

func (r *ReplyBuilder) String() string {
	return r.b.String()
}
