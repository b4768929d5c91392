package loader

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/wnxd/micrort/emulator"
)

type elfImage struct {
	name    string
	file    *elf.File
	closer  io.Closer
	arch    emulator.Arch
	regions []Region
	symbols []Symbol
}

// Open parses the ELF image at path. The file stays open until the Image is
// closed.
func Open(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	img, err := parse(filepath.Base(path), f, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return img, nil
}

// Parse reads an ELF image from r.
func Parse(name string, r io.ReaderAt) (Image, error) {
	img, err := parse(name, r, nil)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func parse(name string, r io.ReaderAt, closer io.Closer) (*elfImage, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, name, err)
	}
	img := &elfImage{name: name, file: f, closer: closer}
	if img.arch, err = elfArch(f); err != nil {
		return nil, err
	}
	img.parseRegions()
	if len(img.regions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotLoadable, name)
	}
	if err = img.parseSymbols(); err != nil {
		return nil, err
	}
	return img, nil
}

func elfArch(f *elf.File) (emulator.Arch, error) {
	switch f.Machine {
	case elf.EM_ARM:
		return emulator.ARCH_ARM, nil
	case elf.EM_AARCH64:
		return emulator.ARCH_ARM64, nil
	case elf.EM_386:
		return emulator.ARCH_X86, nil
	case elf.EM_X86_64:
		return emulator.ARCH_X86_64, nil
	case elf.EM_RISCV:
		if f.Class == elf.ELFCLASS64 {
			return emulator.ARCH_RISCV64, nil
		}
		return emulator.ARCH_RISCV32, nil
	}
	return emulator.ARCH_UNKNOWN, fmt.Errorf("%w: %v", emulator.ErrArchUnsupported, f.Machine)
}

func (img *elfImage) parseRegions() {
	for _, s := range img.file.Sections {
		if s.Flags&elf.SHF_ALLOC == 0 || s.Size == 0 {
			continue
		}
		r := Region{
			Name:  s.Name,
			Addr:  s.Addr,
			Size:  s.Size,
			Align: max(s.Addralign, 1),
			Prot:  emulator.MEM_PROT_READ,
		}
		if s.Flags&elf.SHF_WRITE != 0 {
			r.Prot |= emulator.MEM_PROT_WRITE
		}
		if s.Flags&elf.SHF_EXECINSTR != 0 {
			r.Prot |= emulator.MEM_PROT_EXEC
		}
		if s.Type != elf.SHT_NOBITS {
			r.Length = s.Size
			r.ReaderAt = s
		}
		img.regions = append(img.regions, r)
	}
	slices.SortFunc(img.regions, func(a, b Region) int {
		switch {
		case a.Addr < b.Addr:
			return -1
		case a.Addr > b.Addr:
			return 1
		}
		return 0
	})
}

func (img *elfImage) parseSymbols() error {
	syms, err := img.file.Symbols()
	if err == elf.ErrNoSymbols {
		return nil
	} else if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFormat, img.name, err)
	}
	for _, sym := range syms {
		if sym.Name == "" || sym.Section == elf.SHN_UNDEF || sym.Section >= elf.SHN_LORESERVE {
			continue
		}
		switch elf.ST_TYPE(sym.Info) {
		case elf.STT_FUNC, elf.STT_OBJECT, elf.STT_NOTYPE:
		default:
			continue
		}
		img.symbols = append(img.symbols, Symbol{Name: sym.Name, Value: sym.Value, Size: sym.Size})
	}
	return nil
}

func (img *elfImage) Close() error {
	if img.closer == nil {
		return nil
	}
	return img.closer.Close()
}

func (img *elfImage) Name() string {
	return img.name
}

func (img *elfImage) Arch() emulator.Arch {
	return img.arch
}

func (img *elfImage) ByteOrder() binary.ByteOrder {
	return img.file.ByteOrder
}

func (img *elfImage) Regions() []Region {
	return img.regions
}

func (img *elfImage) EntryAddr() uint64 {
	return img.file.Entry
}

func (img *elfImage) Symbols() []Symbol {
	return img.symbols
}

func (img *elfImage) FindSymbol(name string) (uint64, error) {
	for _, sym := range img.symbols {
		if sym.Name == name {
			return sym.Value, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
}
