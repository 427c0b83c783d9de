package jeebie

import (
	"fmt"
	"os"
	"sync"

	"github.com/valerio/go-jeebie/jeebie/addr"
	"github.com/valerio/go-jeebie/jeebie/audio"
	"github.com/valerio/go-jeebie/jeebie/cpu"
	"github.com/valerio/go-jeebie/jeebie/debug"
	"github.com/valerio/go-jeebie/jeebie/input/action"
	"github.com/valerio/go-jeebie/jeebie/memory"
	"github.com/valerio/go-jeebie/jeebie/timing"
	"github.com/valerio/go-jeebie/jeebie/video"

	"log/slog"
)

// DebuggerState represents the current debugger mode
type DebuggerState int

const (
	DebuggerRunning   DebuggerState = iota // Normal execution
	DebuggerPaused                         // Paused, waiting for commands
	DebuggerStep                           // Execute one instruction then pause
	DebuggerStepFrame                      // Execute one frame then pause
)

// debugSnapshotSize is the number of bytes of memory captured around PC
// for ExtractDebugData's disassembly view.
const debugSnapshotSize = 200

// DMG is the root struct and entry point for running a DMG/CGB emulation.
// It owns the bus (CPU, MMU, GPU) and the debugger/frame-limiting state
// layered on top of it.
type DMG struct {
	bus *Bus

	limiter timing.Limiter

	// Debugger state
	debuggerState    DebuggerState
	debuggerMutex    sync.RWMutex
	stepRequested    bool
	frameRequested   bool
	instructionCount uint64
	frameCount       uint64
}

func (e *DMG) init(mem *memory.MMU) {
	e.bus = &Bus{
		CPU: cpu.New(mem),
		MMU: mem,
		GPU: video.NewGpu(mem),
	}
	e.limiter = timing.NewNoOpLimiter()
}

// New creates a new emulator instance with no cartridge loaded.
func New() *DMG {
	e := &DMG{}
	e.init(memory.NewWithCartridge(memory.NewCartridge()))

	return e
}

// NewWithFile creates a new emulator instance and loads the file specified into it.
func NewWithFile(path string) (*DMG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded ROM data", "size", len(data))

	e := &DMG{}
	e.init(memory.NewWithCartridge(memory.NewCartridgeWithData(data)))

	return e, nil
}

// RunUntilFrame advances the emulation until a full frame has been produced,
// honoring the current debugger state (paused, single-step, step-frame).
func (e *DMG) RunUntilFrame() error {
	e.debuggerMutex.RLock()
	state := e.debuggerState
	e.debuggerMutex.RUnlock()

	switch state {
	case DebuggerPaused:
		return nil

	case DebuggerStep:
		e.debuggerMutex.Lock()
		requested := e.stepRequested
		e.stepRequested = false
		e.debuggerMutex.Unlock()

		if requested {
			oldPC := e.bus.CPU.GetPC()
			e.bus.TickInstruction()
			e.instructionCount++

			slog.Debug("Step executed", "pc", fmt.Sprintf("0x%04X", oldPC), "new_pc", fmt.Sprintf("0x%04X", e.bus.CPU.GetPC()))
			e.SetDebuggerState(DebuggerPaused)
		}
		return nil

	case DebuggerStepFrame:
		e.debuggerMutex.Lock()
		requested := e.frameRequested
		e.frameRequested = false
		e.debuggerMutex.Unlock()

		if requested {
			e.runFrame()
			e.SetDebuggerState(DebuggerPaused)
		}
		return nil

	default: // DebuggerRunning
		e.runFrame()
		e.limiter.WaitForNextFrame()
		return nil
	}
}

// runFrame executes instructions until a full frame's worth of cycles has
// elapsed (timing.CyclesPerFrame, the real LR35902 cycle count per frame).
func (e *DMG) runFrame() {
	total := 0
	for total < timing.CyclesPerFrame {
		total += e.bus.TickInstruction()
		e.instructionCount++
	}

	e.frameCount++
	if e.frameCount%60 == 0 {
		slog.Debug("Frame completed", "frame", e.frameCount, "pc", fmt.Sprintf("0x%04X", e.bus.CPU.GetPC()))
	}
}

// GetCurrentFrame returns the most recently completed video frame.
func (e *DMG) GetCurrentFrame() *video.FrameBuffer {
	return e.bus.GPU.GetFrameBuffer()
}

// HandleAction dispatches a routed input action to the appropriate
// subsystem: joypad state for game input, debugger controls for emulator
// actions, channel toggles for audio actions. Unhandled categories are
// ignored; it's the backend's job to route those itself.
func (e *DMG) HandleAction(act action.Action, pressed bool) {
	if key, ok := joypadKeyFor(act); ok {
		if pressed {
			e.bus.MMU.HandleKeyPress(key)
		} else {
			e.bus.MMU.HandleKeyRelease(key)
		}
		return
	}

	if !pressed {
		return
	}

	switch act {
	case action.EmulatorPauseToggle:
		if e.GetDebuggerState() == DebuggerPaused {
			e.DebuggerResume()
		} else {
			e.DebuggerPause()
		}
	case action.EmulatorStepInstruction:
		e.DebuggerStepInstruction()
	case action.EmulatorStepFrame:
		e.DebuggerStepFrame()
	case action.AudioToggleChannel1, action.AudioToggleChannel2, action.AudioToggleChannel3, action.AudioToggleChannel4:
		e.GetAudioProvider().ToggleChannel(audioChannelFor(act))
	case action.AudioSoloChannel1, action.AudioSoloChannel2, action.AudioSoloChannel3, action.AudioSoloChannel4:
		e.GetAudioProvider().SoloChannel(audioChannelFor(act))
	}
}

func joypadKeyFor(act action.Action) (memory.JoypadKey, bool) {
	switch act {
	case action.GBButtonA:
		return memory.JoypadA, true
	case action.GBButtonB:
		return memory.JoypadB, true
	case action.GBButtonStart:
		return memory.JoypadStart, true
	case action.GBButtonSelect:
		return memory.JoypadSelect, true
	case action.GBDPadUp:
		return memory.JoypadUp, true
	case action.GBDPadDown:
		return memory.JoypadDown, true
	case action.GBDPadLeft:
		return memory.JoypadLeft, true
	case action.GBDPadRight:
		return memory.JoypadRight, true
	default:
		return 0, false
	}
}

func audioChannelFor(act action.Action) int {
	switch act {
	case action.AudioToggleChannel1, action.AudioSoloChannel1:
		return 1
	case action.AudioToggleChannel2, action.AudioSoloChannel2:
		return 2
	case action.AudioToggleChannel3, action.AudioSoloChannel3:
		return 3
	default:
		return 4
	}
}

// ExtractDebugData builds a full snapshot of CPU, memory, OAM and VRAM state
// for debug UIs. Returns nil if the emulator has not been initialized.
func (e *DMG) ExtractDebugData() *debug.CompleteDebugData {
	if e.bus == nil || e.bus.CPU == nil || e.bus.MMU == nil || e.bus.GPU == nil {
		return nil
	}

	c := e.bus.CPU
	mem := e.bus.MMU

	cpuState := &debug.CPUState{
		A: c.GetA(), F: c.GetF(),
		B: c.GetB(), C: c.GetC(),
		D: c.GetD(), E: c.GetE(),
		H: c.GetH(), L: c.GetL(),
		SP:     c.GetSP(),
		PC:     c.GetPC(),
		IME:    c.InterruptsEnabled(),
		Cycles: c.Cycles(),
	}

	pc := c.GetPC()
	size := debugSnapshotSize
	if uint32(pc)+uint32(size) > 0x10000 {
		size = int(0x10000 - uint32(pc))
	}
	bytes := make([]uint8, size)
	for i := 0; i < size; i++ {
		bytes[i] = mem.Read(pc + uint16(i))
	}
	memSnapshot := &debug.MemorySnapshot{StartAddr: pc, Bytes: bytes}

	lcdc := mem.Read(addr.LCDC)
	spriteHeight := 8
	if lcdc&0x04 != 0 {
		spriteHeight = 16
	}
	currentLine := int(mem.Read(addr.LY))

	return &debug.CompleteDebugData{
		OAM:             debug.ExtractOAMData(mem, currentLine, spriteHeight),
		VRAM:            debug.ExtractVRAMData(mem),
		CPU:             cpuState,
		Memory:          memSnapshot,
		DebuggerState:   debug.DebuggerState(e.GetDebuggerState()),
		InterruptEnable: mem.Read(addr.IE),
		InterruptFlags:  mem.Read(addr.IF),
	}
}

// SetFrameLimiter installs the limiter used to pace RunUntilFrame in the
// normal-running state. A nil limiter reverts to no-op (unlimited) timing.
func (e *DMG) SetFrameLimiter(limiter timing.Limiter) {
	if limiter == nil {
		e.limiter = timing.NewNoOpLimiter()
	} else {
		e.limiter = limiter
	}
}

// ResetFrameTiming resets the installed limiter's internal clock, useful
// after a debugger pause so the next frame isn't throttled to catch up.
func (e *DMG) ResetFrameTiming() {
	e.limiter.Reset()
}

// GetAudioProvider exposes the APU as the generic audio.Provider interface.
func (e *DMG) GetAudioProvider() audio.Provider {
	return e.bus.MMU.APU
}

func (e *DMG) GetCPU() *cpu.CPU {
	return e.bus.CPU
}

// Debugger control methods
func (e *DMG) SetDebuggerState(state DebuggerState) {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.debuggerState = state
	slog.Debug("Debugger state changed", "state", state)
}

func (e *DMG) GetDebuggerState() DebuggerState {
	e.debuggerMutex.RLock()
	defer e.debuggerMutex.RUnlock()
	return e.debuggerState
}

func (e *DMG) DebuggerPause() {
	e.SetDebuggerState(DebuggerPaused)
	slog.Info("Emulator paused")
}

func (e *DMG) DebuggerResume() {
	e.SetDebuggerState(DebuggerRunning)
	e.ResetFrameTiming()
	slog.Info("Emulator resumed")
}

func (e *DMG) DebuggerStepInstruction() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.stepRequested = true
	e.debuggerState = DebuggerStep
	slog.Info("Step instruction requested")
}

func (e *DMG) DebuggerStepFrame() {
	e.debuggerMutex.Lock()
	defer e.debuggerMutex.Unlock()
	e.frameRequested = true
	e.debuggerState = DebuggerStepFrame
	slog.Info("Step frame requested")
}

func (e *DMG) GetInstructionCount() uint64 {
	return e.instructionCount
}

func (e *DMG) GetFrameCount() uint64 {
	return e.frameCount
}

func (e *DMG) GetMMU() *memory.MMU {
	return e.bus.MMU
}

// HandleKeyPress is a thin convenience wrapper over HandleAction for
// backends that already deal in raw joypad keys rather than actions.
func (e *DMG) HandleKeyPress(key memory.JoypadKey) {
	e.bus.MMU.HandleKeyPress(key)
}

func (e *DMG) HandleKeyRelease(key memory.JoypadKey) {
	e.bus.MMU.HandleKeyRelease(key)
}
