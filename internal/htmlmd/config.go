package htmlmd

import (
	"fmt"
	"unicode/utf8"
)

// HeadingStyle controls how headings are rendered.
type HeadingStyle string

const (
	HeadingATX    HeadingStyle = "atx"
	HeadingSetext HeadingStyle = "setext"
)

// LinkStyle controls how anchors are rendered.
type LinkStyle string

const (
	LinkInline LinkStyle = "inline"
	// LinkReference is accepted but not implemented: anchors are left as
	// plain text.
	LinkReference LinkStyle = "reference"
)

// CodeBlockStyle controls how <pre> blocks are rendered.
type CodeBlockStyle string

const (
	CodeFenced   CodeBlockStyle = "fenced"
	CodeIndented CodeBlockStyle = "indented"
)

// Config holds conversion options. A Converter copies it at construction
// and never mutates it.
type Config struct {
	PreserveStructure bool           `mapstructure:"preserve_structure" yaml:"preserve_structure" json:"preserveStructure"`
	PreserveTables    bool           `mapstructure:"preserve_tables" yaml:"preserve_tables" json:"preserveTables"`
	PreserveLinks     bool           `mapstructure:"preserve_links" yaml:"preserve_links" json:"preserveLinks"`
	HeadingStyle      HeadingStyle   `mapstructure:"heading_style" yaml:"heading_style" json:"headingStyle,omitempty"`
	LinkStyle         LinkStyle      `mapstructure:"link_style" yaml:"link_style" json:"linkStyle,omitempty"`
	BulletMarker      string         `mapstructure:"bullet_marker" yaml:"bullet_marker" json:"bulletMarker,omitempty"`
	CodeBlockStyle    CodeBlockStyle `mapstructure:"code_block_style" yaml:"code_block_style" json:"codeBlockStyle,omitempty"`
	FenceChar         string         `mapstructure:"fence_char" yaml:"fence_char" json:"fenceChar,omitempty"`
	EmphasisMarker    string         `mapstructure:"emphasis_marker" yaml:"emphasis_marker" json:"emphasisMarker,omitempty"`
}

// DefaultConfig returns the configuration used when the caller has no
// preference: every structural pass on, ATX headings, inline links,
// "-" bullets, ``` fences and "*" emphasis.
func DefaultConfig() Config {
	return Config{
		PreserveStructure: true,
		PreserveTables:    true,
		PreserveLinks:     true,
		HeadingStyle:      HeadingATX,
		LinkStyle:         LinkInline,
		BulletMarker:      "-",
		CodeBlockStyle:    CodeFenced,
		FenceChar:         "`",
		EmphasisMarker:    "*",
	}
}

// applyDefaults fills empty enum and marker fields. Booleans are taken as
// given since their zero value is meaningful.
func (c Config) applyDefaults() Config {
	def := DefaultConfig()
	if c.HeadingStyle == "" {
		c.HeadingStyle = def.HeadingStyle
	}
	if c.LinkStyle == "" {
		c.LinkStyle = def.LinkStyle
	}
	if c.BulletMarker == "" {
		c.BulletMarker = def.BulletMarker
	}
	if c.CodeBlockStyle == "" {
		c.CodeBlockStyle = def.CodeBlockStyle
	}
	if c.FenceChar == "" {
		c.FenceChar = def.FenceChar
	}
	if c.EmphasisMarker == "" {
		c.EmphasisMarker = def.EmphasisMarker
	}
	return c
}

// Validate checks that config values are valid.
func (c Config) Validate() error {
	switch c.HeadingStyle {
	case HeadingATX, HeadingSetext:
	default:
		return fmt.Errorf("invalid heading_style %q", c.HeadingStyle)
	}
	switch c.LinkStyle {
	case LinkInline, LinkReference:
	default:
		return fmt.Errorf("invalid link_style %q", c.LinkStyle)
	}
	switch c.CodeBlockStyle {
	case CodeFenced, CodeIndented:
	default:
		return fmt.Errorf("invalid code_block_style %q", c.CodeBlockStyle)
	}
	markers := []struct{ name, value string }{
		{"bullet_marker", c.BulletMarker},
		{"fence_char", c.FenceChar},
		{"emphasis_marker", c.EmphasisMarker},
	}
	for _, m := range markers {
		if utf8.RuneCountInString(m.value) != 1 {
			return fmt.Errorf("invalid %s %q: must be a single character", m.name, m.value)
		}
	}
	return nil
}
