package main

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/chazu/jlazylink/pkg/classmodel"
	"github.com/chazu/jlazylink/pkg/descriptor"
)

// toyClassFileParser parses a small line-oriented text format standing in
// for a real JVM classfile, mirroring ClassLoader::add(MemoryBuffer)'s
// role of turning raw bytes into a linked ClassObject. Format:
//
//	class <binary-name>
//	interface                      (marks the class being defined as an interface)
//	super <binary-name>
//	implements <binary-name>       (repeatable)
//	field static|instance <name> <descriptor>
//	method static|virtual|special <name> <descriptor>
//
// Field offsets are assigned in declaration order. A virtual method that
// overrides one with the same name and descriptor in the superclass's
// vtable reuses that slot; any other virtual method is appended in
// declaration order. A
// real classfile parser is out of scope (spec.md's Non-goals).
type toyClassFileParser struct{}

func (toyClassFileParser) Parse(_ string, data []byte, loader *classmodel.ClassLoader) (*classmodel.ClassObject, error) {
	co := &classmodel.ClassObject{ITables: map[string]*classmodel.ITable{}}
	nextOffset := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "class":
			co.Name = fields[1]
		case "interface":
			co.IsInterface = true
		case "super":
			super, err := loader.ForName(fields[1])
			if err != nil {
				return nil, fmt.Errorf("toyclassfile: super %s: %w", fields[1], err)
			}
			co.Super = super
		case "implements":
			iface, err := loader.ForName(fields[1])
			if err != nil {
				return nil, fmt.Errorf("toyclassfile: implements %s: %w", fields[1], err)
			}
			co.Interfaces = append(co.Interfaces, iface)
		case "field":
			if len(fields) != 4 {
				return nil, fmt.Errorf("toyclassfile: malformed field line %q", line)
			}
			ft, err := descriptor.ParseFieldType(fields[3])
			if err != nil {
				return nil, fmt.Errorf("toyclassfile: field %s descriptor: %w", fields[2], err)
			}
			f := &classmodel.Field{Name: fields[2], Descriptor: ft, IsStatic: fields[1] == "static"}
			if !f.IsStatic {
				f.Offset = nextOffset
				nextOffset += 8
			}
			co.Fields = append(co.Fields, f)
		case "method":
			if len(fields) != 4 {
				return nil, fmt.Errorf("toyclassfile: malformed method line %q", line)
			}
			mt, err := descriptor.ParseMethodType(fields[3])
			if err != nil {
				return nil, fmt.Errorf("toyclassfile: method %s descriptor: %w", fields[2], err)
			}
			co.Methods = append(co.Methods, &classmodel.MethodRef{
				Name:       fields[2],
				Descriptor: mt,
				IsStatic:   fields[1] == "static",
			})
		default:
			return nil, fmt.Errorf("toyclassfile: unrecognized directive %q", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("toyclassfile: %w", err)
	}
	if co.Name == "" {
		return nil, fmt.Errorf("toyclassfile: missing class directive")
	}

	if !co.IsInterface {
		var parentVT *classmodel.VTable
		if co.Super != nil {
			parentVT = co.Super.VTable
		}
		co.VTable = classmodel.NewVTable(co, parentVT)
		for _, m := range co.Methods {
			if m.IsStatic {
				continue
			}
			slot := -1
			for i := 0; parentVT != nil && i < parentVT.SlotCount(); i++ {
				if p := parentVT.Slot(i); p != nil && p.Name == m.Name && p.Descriptor.Equal(m.Descriptor) {
					slot = i
					break
				}
			}
			if slot >= 0 {
				co.VTable.Assign(slot, m)
			} else {
				co.VTable.Append(m)
			}
		}
	}
	return co, nil
}
