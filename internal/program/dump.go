package program

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/roach88/logrename/internal/ir"
)

// Format is a dump encoding.
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// FormatFromPath picks a format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".msgpack", ".mpk":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("unknown dump format %q", filepath.Ext(path))
	}
}

// Dump is the serialized form of a program.
type Dump struct {
	Classes []ClassDump `yaml:"classes" json:"classes"`
}

// ClassDump is one serialized class.
type ClassDump struct {
	Name       string       `yaml:"name" json:"name"`
	Alias      string       `yaml:"alias,omitempty" json:"alias,omitempty"`
	Supertypes []string     `yaml:"supertypes,omitempty" json:"supertypes,omitempty"`
	Interface  bool         `yaml:"interface,omitempty" json:"interface,omitempty"`
	Abstract   bool         `yaml:"abstract,omitempty" json:"abstract,omitempty"`
	Methods    []MethodDump `yaml:"methods,omitempty" json:"methods,omitempty"`
}

// MethodDump is one serialized method. Code is decoded into instructions
// lazily, so a malformed instruction surfaces as that method's decode
// error and not as a load error.
type MethodDump struct {
	Name   string   `yaml:"name" json:"name"`
	Alias  string   `yaml:"alias,omitempty" json:"alias,omitempty"`
	Args   []string `yaml:"args,omitempty" json:"args,omitempty"`
	Return string   `yaml:"return,omitempty" json:"return,omitempty"`
	Static bool     `yaml:"static,omitempty" json:"static,omitempty"`
	NoCode bool     `yaml:"noCode,omitempty" json:"noCode,omitempty"`
	// Lazy makes the first decode come back empty, as a host does when a
	// body has not been loaded yet.
	Lazy bool `yaml:"lazy,omitempty" json:"lazy,omitempty"`
	// DecodeError makes every decode fail with this message.
	DecodeError string     `yaml:"decodeError,omitempty" json:"decodeError,omitempty"`
	Code        []InsnDump `yaml:"code,omitempty" json:"code,omitempty"`
}

// InsnDump is one serialized instruction.
//
//	{op: const-string, dest: 0, value: "a/b/C"}
//	{op: move, dest: 1, src: {reg: 0}}
//	{op: invoke, call: "a/B->c(Ljava/lang/String;)V", args: [{reg: 1}], offset: 0}
//	{op: other, dest: 2, value: "new-instance"}
type InsnDump struct {
	Op     string        `yaml:"op" json:"op"`
	Dest   *int          `yaml:"dest,omitempty" json:"dest,omitempty"`
	Value  string        `yaml:"value,omitempty" json:"value,omitempty"`
	Src    *OperandDump  `yaml:"src,omitempty" json:"src,omitempty"`
	Call   string        `yaml:"call,omitempty" json:"call,omitempty"`
	Args   []OperandDump `yaml:"args,omitempty" json:"args,omitempty"`
	Offset int           `yaml:"offset,omitempty" json:"offset,omitempty"`
}

// OperandDump is one serialized operand; exactly one field is set.
type OperandDump struct {
	Reg  *int      `yaml:"reg,omitempty" json:"reg,omitempty"`
	Wrap *InsnDump `yaml:"wrap,omitempty" json:"wrap,omitempty"`
	Text string    `yaml:"text,omitempty" json:"text,omitempty"`
}

// LoadFile reads a dump, choosing the format by extension.
func LoadFile(path string) (*Program, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()

	p, err := Load(f, format)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}

// Load reads a dump in the given format and builds a program from it.
func Load(r io.Reader, format Format) (*Program, error) {
	d, err := ReadDump(r, format)
	if err != nil {
		return nil, err
	}
	return FromDump(d)
}

// ReadDump decodes a dump without building a program.
func ReadDump(r io.Reader, format Format) (Dump, error) {
	var d Dump
	switch format {
	case FormatYAML, FormatJSON:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil && err != io.EOF {
			return Dump{}, fmt.Errorf("decode %s dump: %w", format, err)
		}
	case FormatMsgpack:
		dec := msgpack.NewDecoder(r)
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&d); err != nil {
			return Dump{}, fmt.Errorf("decode msgpack dump: %w", err)
		}
	default:
		return Dump{}, fmt.Errorf("unknown dump format %q", format)
	}
	return d, nil
}

// FromDump builds a program. Aliases are applied as renames. Method code
// is kept serialized until first decode.
func FromDump(d Dump) (*Program, error) {
	p := New()
	for i, cd := range d.Classes {
		if strings.TrimSpace(cd.Name) == "" {
			return nil, fmt.Errorf("class %d: missing name", i)
		}
		if p.Class(cd.Name) != nil {
			return nil, fmt.Errorf("class %s: duplicate", cd.Name)
		}
		c := p.AddClass(ClassSpec{
			Name:       cd.Name,
			Supertypes: cd.Supertypes,
			Interface:  cd.Interface,
			Abstract:   cd.Abstract,
		})
		for j, md := range cd.Methods {
			if md.Name == "" {
				return nil, fmt.Errorf("class %s: method %d: missing name", cd.Name, j)
			}
			m := c.AddMethod(MethodSpec{
				Name:   md.Name,
				Args:   md.Args,
				Return: md.Return,
				Static: md.Static,
				NoCode: md.NoCode,
				Decode: dumpDecoder(md),
			})
			m.source = &MethodDump{Lazy: md.Lazy, DecodeError: md.DecodeError, Code: md.Code}
			if md.Alias != "" {
				m.Rename(md.Alias)
			}
		}
		if cd.Alias != "" {
			c.Rename(cd.Alias)
		}
	}
	return p, nil
}

// ToDump serializes the program with its current aliases. Methods loaded
// from a dump write back the body they were loaded with, whether or not it
// was ever decoded; built methods are decoded and encoded.
func (p *Program) ToDump() (Dump, error) {
	d := Dump{Classes: make([]ClassDump, 0, len(p.classes))}
	for _, c := range p.classes {
		cd := ClassDump{
			Name:       c.raw,
			Alias:      c.alias,
			Supertypes: c.supertypes,
			Interface:  c.iface,
			Abstract:   c.abstract,
		}
		for _, m := range c.methods {
			md := MethodDump{
				Name:   m.raw,
				Alias:  m.alias,
				Args:   m.args,
				Return: m.ret,
				Static: m.static && m.raw != ir.ClassInitName,
				NoCode: m.noCode,
			}
			if m.source != nil {
				md.Lazy = m.source.Lazy
				md.DecodeError = m.source.DecodeError
				md.Code = m.source.Code
				cd.Methods = append(cd.Methods, md)
				continue
			}
			body, err := m.Instructions()
			if err != nil {
				md.DecodeError = err.Error()
			} else {
				code, err := encodeBody(body)
				if err != nil {
					return Dump{}, fmt.Errorf("%s.%s: %w", c.raw, m.raw, err)
				}
				md.Code = code
			}
			cd.Methods = append(cd.Methods, md)
		}
		d.Classes = append(d.Classes, cd)
	}
	return d, nil
}

// Save writes the program in the given format.
func (p *Program) Save(w io.Writer, format Format) error {
	d, err := p.ToDump()
	if err != nil {
		return err
	}
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode yaml dump: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode json dump: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	case FormatMsgpack:
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode msgpack dump: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown dump format %q", format)
	}
}

// SaveFile writes the program, choosing the format by extension.
func (p *Program) SaveFile(path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := p.Save(&buf, format); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
