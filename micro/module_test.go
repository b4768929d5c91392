package micro

import (
	"encoding/binary"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/wnxd/micrort/args"
	"github.com/wnxd/micrort/device"
	"github.com/wnxd/micrort/loader"
)

func scenarioBinary() *loader.BinaryInfo {
	return &loader.BinaryInfo{
		Path: "lib.so",
		Name: "lib.so",
		Symbols: loader.SymbolMap{
			"add":                       0x100,
			"add_hole_unused":           0x200,
			"TVMBackendAllocWorkspace_": 0x300,
			"TVMBackendFreeWorkspace_":  0x310,
			"TVMAPISetLastError_":       0x320,
		},
	}
}

func scenarioInit() loader.SymbolMap {
	return loader.SymbolMap{
		"TVMBackendAllocWorkspace": 0x50,
		"TVMBackendFreeWorkspace":  0x60,
		"TVMAPISetLastError":       0x70,
	}
}

var _ = Describe("Module", func() {
	var (
		mockCtrl *gomock.Controller
		sess     *MockSession
		mem      *device.Memory
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		sess = NewMockSession(mockCtrl)
		mem = device.NewMemory(0x8000, 0x1000)
		sess.EXPECT().LowLevelDevice().Return(mem).AnyTimes()
		sess.EXPECT().InitSymbolMap().Return(scenarioInit()).AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	readPointer := func(off device.DevBaseOffset) device.DevAddr {
		addr, err := device.ToPointer(mem, off).ReadPointer()
		Expect(err).NotTo(HaveOccurred())
		return addr
	}

	It("should patch every hole with base plus runtime offset", func() {
		sess.EXPECT().LoadBinary("lib.so").Return(scenarioBinary(), nil)

		m, err := Load(sess, "lib.so")

		Expect(err).NotTo(HaveOccurred())
		Expect(m.Path()).To(Equal("lib.so"))
		Expect(m.TypeKey()).To(Equal("micro"))
		Expect(readPointer(0x300)).To(Equal(device.DevAddr(0x8050)))
		Expect(readPointer(0x310)).To(Equal(device.DevAddr(0x8060)))
		Expect(readPointer(0x320)).To(Equal(device.DevAddr(0x8070)))
		Expect(readPointer(0x200)).To(BeZero())
	})

	It("should bind functions to their symbol offsets", func() {
		sess.EXPECT().LoadBinary("lib.so").Return(scenarioBinary(), nil)
		m, err := Load(sess, "lib.so")
		Expect(err).NotTo(HaveOccurred())

		fn, err := m.GetFunction("add")

		Expect(err).NotTo(HaveOccurred())
		Expect(fn.Name()).To(Equal("add"))
		Expect(fn.Offset()).To(Equal(device.DevBaseOffset(0x100)))
		Expect(fn.String()).To(Equal("add@+0x100"))
	})

	It("should report missing functions", func() {
		sess.EXPECT().LoadBinary("lib.so").Return(scenarioBinary(), nil)
		m, err := Load(sess, "lib.so")
		Expect(err).NotTo(HaveOccurred())

		fn, err := m.GetFunction("missing")

		Expect(fn).To(BeNil())
		Expect(err).To(MatchError(ErrMissingSymbol))
		Expect(err).To(MatchError(loader.ErrSymbolNotFound))
	})

	It("should panic when getting a function from an uninitialized module", func() {
		var m *Module
		Expect(func() { m.GetFunction("add") }).To(Panic())
		Expect(func() { (&Module{}).GetFunction("add") }).To(Panic())
	})

	It("should fail when the binary cannot be loaded", func() {
		cause := errors.New("flash failed")
		sess.EXPECT().LoadBinary("lib.so").Return(nil, cause)

		m, err := Load(sess, "lib.so")

		Expect(m).To(BeNil())
		Expect(err).To(MatchError(ErrLoadFailure))
		Expect(err).To(MatchError(cause))
	})

	It("should fail when a runtime implementation is missing", func() {
		sess.EXPECT().LoadBinary("lib.so").Return(scenarioBinary(), nil)

		m, err := Load(sess, "lib.so", WithHoles("TVMBackendParallelLaunch"))

		Expect(m).To(BeNil())
		Expect(err).To(MatchError(ErrMissingSymbol))
		Expect(err.Error()).To(ContainSubstring("TVMBackendParallelLaunch"))
	})

	It("should fail when the module lacks a hole", func() {
		info := scenarioBinary()
		delete(info.Symbols, "TVMBackendFreeWorkspace_")
		sess.EXPECT().LoadBinary("lib.so").Return(info, nil)

		m, err := Load(sess, "lib.so")

		Expect(m).To(BeNil())
		Expect(err).To(MatchError(ErrMissingSymbol))
		Expect(err.Error()).To(ContainSubstring("TVMBackendFreeWorkspace_"))
		Expect(readPointer(0x300)).To(Equal(device.DevAddr(0x8050)))
	})

	It("should patch extra holes after the default ones", func() {
		info := scenarioBinary()
		info.Symbols["TVMBackendGetFuncFromEnv_"] = 0x330
		initMap := scenarioInit()
		initMap["TVMBackendGetFuncFromEnv"] = 0x80
		sess = NewMockSession(mockCtrl)
		sess.EXPECT().LowLevelDevice().Return(mem).AnyTimes()
		sess.EXPECT().InitSymbolMap().Return(initMap).AnyTimes()
		sess.EXPECT().LoadBinary("lib.so").Return(info, nil)

		_, err := Load(sess, "lib.so", WithHoles("TVMBackendGetFuncFromEnv"))

		Expect(err).NotTo(HaveOccurred())
		Expect(readPointer(0x330)).To(Equal(device.DevAddr(0x8080)))
	})
})

var _ = Describe("Module on a 32-bit device", func() {
	var (
		mockCtrl *gomock.Controller
		sess     *MockSession
		dev      *MockLowLevelDevice
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		sess = NewMockSession(mockCtrl)
		dev = NewMockLowLevelDevice(mockCtrl)
		sess.EXPECT().LowLevelDevice().Return(dev).AnyTimes()
		sess.EXPECT().InitSymbolMap().Return(scenarioInit()).AnyTimes()
		sess.EXPECT().LoadBinary("lib.so").Return(scenarioBinary(), nil)
		dev.EXPECT().BaseAddr().Return(device.DevAddr(0x8000)).AnyTimes()
		dev.EXPECT().PointerSize().Return(4).AnyTimes()
		dev.EXPECT().ByteOrder().Return(binary.BigEndian).AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should write 4 byte pointers in device byte order", func() {
		gomock.InOrder(
			dev.EXPECT().Write(device.DevBaseOffset(0x300), []byte{0, 0, 0x80, 0x50}).Return(nil),
			dev.EXPECT().Write(device.DevBaseOffset(0x310), []byte{0, 0, 0x80, 0x60}).Return(nil),
			dev.EXPECT().Write(device.DevBaseOffset(0x320), []byte{0, 0, 0x80, 0x70}).Return(nil),
		)

		m, err := Load(sess, "lib.so")

		Expect(err).NotTo(HaveOccurred())
		Expect(m.Symbols()).To(HaveLen(5))
	})

	It("should fail when a hole cannot be written", func() {
		cause := errors.New("bus fault")
		gomock.InOrder(
			dev.EXPECT().Write(device.DevBaseOffset(0x300), gomock.Any()).Return(nil),
			dev.EXPECT().Write(device.DevBaseOffset(0x310), gomock.Any()).Return(cause),
		)

		m, err := Load(sess, "lib.so")

		Expect(m).To(BeNil())
		Expect(err).To(MatchError(ErrPatchWrite))
		Expect(err).To(MatchError(cause))
	})
})

var _ = Describe("Func", func() {
	var (
		mockCtrl *gomock.Controller
		sess     *MockSession
		fn       *Func
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		sess = NewMockSession(mockCtrl)
		sess.EXPECT().LowLevelDevice().Return(device.NewMemory(0x8000, 0x1000)).AnyTimes()
		sess.EXPECT().InitSymbolMap().Return(scenarioInit()).AnyTimes()
		sess.EXPECT().LoadBinary("lib.so").Return(scenarioBinary(), nil)
		m, err := Load(sess, "lib.so")
		Expect(err).NotTo(HaveOccurred())
		fn, err = m.GetFunction("add")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should not enqueue when the session is invalid", func() {
		sess.EXPECT().Valid().Return(false).AnyTimes()
		sess.EXPECT().PushToExecQueue(gomock.Any(), gomock.Any()).Times(0)

		fn.Invoke(args.Int(1), args.Int(2))
	})

	It("should enqueue exactly once with offset and arguments in order", func() {
		sess.EXPECT().Valid().Return(true).AnyTimes()
		sess.EXPECT().
			PushToExecQueue(device.DevBaseOffset(0x100), args.List{args.Int(1), args.String("x"), args.Float(0.5)}).
			Return(nil, nil).
			Times(1)

		fn.Invoke(args.Int(1), args.String("x"), args.Float(0.5))
	})

	It("should swallow queue errors on invoke", func() {
		sess.EXPECT().Valid().Return(true).AnyTimes()
		sess.EXPECT().PushToExecQueue(gomock.Any(), gomock.Any()).Return(nil, errors.New("closed"))

		Expect(func() { fn.Invoke() }).NotTo(Panic())
	})

	It("should convert host values", func() {
		sess.EXPECT().Valid().Return(true).AnyTimes()
		sess.EXPECT().
			PushToExecQueue(device.DevBaseOffset(0x100), args.List{args.Int(3), args.String("y")}).
			Return(nil, nil)

		Expect(fn.InvokeValues(3, "y")).To(Succeed())
	})

	It("should reject unsupported host values", func() {
		sess.EXPECT().PushToExecQueue(gomock.Any(), gomock.Any()).Times(0)

		Expect(fn.InvokeValues(make(chan int))).To(MatchError(args.ErrUnsupportedType))
	})

	It("should report an invalid session on call", func() {
		sess.EXPECT().Valid().Return(false)
		sess.EXPECT().PushToExecQueue(gomock.Any(), gomock.Any()).Times(0)

		task, err := fn.Call(args.Int(1))

		Expect(task).To(BeNil())
		Expect(err).To(MatchError(ErrSessionInvalid))
	})

	It("should wrap queue errors on call", func() {
		cause := errors.New("closed")
		sess.EXPECT().Valid().Return(true)
		sess.EXPECT().PushToExecQueue(device.DevBaseOffset(0x100), args.List{args.Int(1)}).Return(nil, cause)

		_, err := fn.Call(args.Int(1))

		Expect(err).To(MatchError(cause))
		Expect(err.Error()).To(HavePrefix("add: "))
	})

	It("should run functions through the module", func() {
		info := scenarioBinary()
		sess.EXPECT().LoadBinary("other.so").Return(info, nil)
		m, err := Load(sess, "other.so")
		Expect(err).NotTo(HaveOccurred())
		sess.EXPECT().Valid().Return(true)
		sess.EXPECT().PushToExecQueue(device.DevBaseOffset(0x200), args.List{args.Null()}).Return(nil, nil)

		m.RunFunction("add_hole_unused", 0x200, args.List{args.Null()})
	})
})

var _ = Describe("Registry", func() {
	var (
		mockCtrl *gomock.Controller
		sess     *MockSession
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		sess = NewMockSession(mockCtrl)
		sess.EXPECT().LowLevelDevice().Return(device.NewMemory(0x8000, 0x1000)).AnyTimes()
		sess.EXPECT().InitSymbolMap().Return(scenarioInit()).AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should load micro_dev modules", func() {
		sess.EXPECT().LoadBinary("lib.so").Return(scenarioBinary(), nil)

		h, err := LoadFile("micro_dev", sess, "lib.so")

		Expect(err).NotTo(HaveOccurred())
		Expect(h.TypeKey()).To(Equal("micro"))
		fn, err := h.GetFunction("add")
		Expect(err).NotTo(HaveOccurred())
		Expect(fn.Offset()).To(Equal(device.DevBaseOffset(0x100)))
	})

	It("should return a nil handle when loading fails", func() {
		sess.EXPECT().LoadBinary("lib.so").Return(nil, errors.New("flash failed"))

		h, err := LoadFile("micro_dev", sess, "lib.so")

		Expect(h).To(BeNil())
		Expect(err).To(MatchError(ErrLoadFailure))
	})

	It("should reject unknown kinds", func() {
		_, err := LoadFile("stackvm", sess, "lib.so")

		Expect(err).To(MatchError(ErrUnknownKind))
	})

	It("should keep the first registration", func() {
		Expect(Register("micro_dev", loadHandle)).To(BeFalse())
	})
})
