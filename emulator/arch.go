package emulator

type Arch int

const (
	ARCH_UNKNOWN Arch = iota
	ARCH_ARM
	ARCH_ARM64
	ARCH_X86
	ARCH_X86_64
	ARCH_RISCV32
	ARCH_RISCV64
)

func (a Arch) PointerSize() (int, error) {
	switch a {
	case ARCH_ARM, ARCH_X86, ARCH_RISCV32:
		return 4, nil
	case ARCH_ARM64, ARCH_X86_64, ARCH_RISCV64:
		return 8, nil
	}
	return 0, ErrArchUnsupported
}

func (a Arch) String() string {
	switch a {
	case ARCH_ARM:
		return "arm"
	case ARCH_ARM64:
		return "arm64"
	case ARCH_X86:
		return "x86"
	case ARCH_X86_64:
		return "x86_64"
	case ARCH_RISCV32:
		return "riscv32"
	case ARCH_RISCV64:
		return "riscv64"
	}
	return "unknown"
}
