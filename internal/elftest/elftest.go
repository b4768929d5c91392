// Package elftest builds small 32-bit little endian ELF executables for tests.
package elftest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
)

type Section struct {
	Name   string
	Addr   uint32
	Data   []byte
	Size   uint32 // only used by NoBits sections
	Align  uint32 // defaults to 4
	Flags  elf.SectionFlag
	NoBits bool
}

type Symbol struct {
	Name    string
	Section string
	Value   uint32
	Type    elf.SymType
}

type File struct {
	Machine  elf.Machine
	Entry    uint32
	Sections []Section
	Symbols  []Symbol
}

type strtab struct {
	buf bytes.Buffer
}

func newStrtab() *strtab {
	t := new(strtab)
	t.buf.WriteByte(0)
	return t
}

func (t *strtab) add(s string) uint32 {
	off := uint32(t.buf.Len())
	t.buf.WriteString(s)
	t.buf.WriteByte(0)
	return off
}

func pad(buf *bytes.Buffer, align int) {
	for buf.Len()%align != 0 {
		buf.WriteByte(0)
	}
}

// Build encodes f as an ELF32 executable.
func Build(f File) []byte {
	if f.Machine == 0 {
		f.Machine = elf.EM_ARM
	}
	const headerSize = 52
	shstr := newStrtab()
	str := newStrtab()
	var body bytes.Buffer
	body.Write(make([]byte, headerSize))

	index := make(map[string]uint16)
	headers := []elf.Section32{{}}
	for i, s := range f.Sections {
		index[s.Name] = uint16(i + 1)
		align := s.Align
		if align == 0 {
			align = 4
		}
		h := elf.Section32{
			Name:      shstr.add(s.Name),
			Type:      uint32(elf.SHT_PROGBITS),
			Flags:     uint32(s.Flags | elf.SHF_ALLOC),
			Addr:      s.Addr,
			Addralign: align,
		}
		if s.NoBits {
			h.Type = uint32(elf.SHT_NOBITS)
			h.Off = uint32(body.Len())
			h.Size = s.Size
		} else {
			pad(&body, 4)
			h.Off = uint32(body.Len())
			h.Size = uint32(len(s.Data))
			body.Write(s.Data)
		}
		headers = append(headers, h)
	}

	var syms bytes.Buffer
	binary.Write(&syms, binary.LittleEndian, elf.Sym32{})
	for _, sym := range f.Symbols {
		typ := sym.Type
		if typ == 0 {
			typ = elf.STT_FUNC
		}
		binary.Write(&syms, binary.LittleEndian, elf.Sym32{
			Name:  str.add(sym.Name),
			Value: sym.Value,
			Info:  elf.ST_INFO(elf.STB_GLOBAL, typ),
			Shndx: index[sym.Section],
		})
	}

	strIndex := uint32(len(headers) + 1)
	pad(&body, 4)
	headers = append(headers, elf.Section32{
		Name:      shstr.add(".symtab"),
		Type:      uint32(elf.SHT_SYMTAB),
		Off:       uint32(body.Len()),
		Size:      uint32(syms.Len()),
		Link:      strIndex,
		Info:      1,
		Addralign: 4,
		Entsize:   elf.Sym32Size,
	})
	body.Write(syms.Bytes())

	headers = append(headers, elf.Section32{
		Name:      shstr.add(".strtab"),
		Type:      uint32(elf.SHT_STRTAB),
		Off:       uint32(body.Len()),
		Size:      uint32(str.buf.Len()),
		Addralign: 1,
	})
	body.Write(str.buf.Bytes())

	shstrName := shstr.add(".shstrtab")
	headers = append(headers, elf.Section32{
		Name:      shstrName,
		Type:      uint32(elf.SHT_STRTAB),
		Off:       uint32(body.Len()),
		Size:      uint32(shstr.buf.Len()),
		Addralign: 1,
	})
	body.Write(shstr.buf.Bytes())

	pad(&body, 4)
	shoff := uint32(body.Len())
	for _, h := range headers {
		binary.Write(&body, binary.LittleEndian, h)
	}

	hdr := elf.Header32{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(f.Machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     f.Entry,
		Shoff:     shoff,
		Ehsize:    headerSize,
		Phentsize: 32,
		Shentsize: 40,
		Shnum:     uint16(len(headers)),
		Shstrndx:  uint16(len(headers) - 1),
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS32)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	out := body.Bytes()
	var h bytes.Buffer
	binary.Write(&h, binary.LittleEndian, hdr)
	copy(out, h.Bytes())
	return out
}

// TB is the part of testing.TB WriteFile needs, so ginkgo's GinkgoT fits too.
type TB interface {
	Helper()
	TempDir() string
	Fatal(args ...any)
}

// WriteFile builds f into a file inside a temporary directory of t.
func WriteFile(t TB, name string, f File) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, Build(f), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
