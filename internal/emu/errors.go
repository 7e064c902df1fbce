package emu

import "errors"

var (
	ErrNotInitialized = errors.New("emu: session not initialized")
	ErrBufferSize     = errors.New("emu: buffer too small")
	ErrHalted         = errors.New("emu: cpu halted")
	ErrInvalidButton  = errors.New("emu: invalid button")
	ErrSetup          = errors.New("emu: setup failed")
	ErrFrequency      = errors.New("emu: clock frequency out of range")
)
