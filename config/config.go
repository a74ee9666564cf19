// Package config loads the board configuration: timer rate, FIFO and ring
// sizes, and which UART serves which role.
package config

import (
	"encoding/json"
	"fmt"
	"strconv"

	"rvboard/regs"
)

// LoadConfig parses a JSON configuration string and returns a BoardConfig
func LoadConfig(jsonData []byte) (*BoardConfig, error) {
	var config BoardConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	// Apply defaults
	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *BoardConfig) {
	if config.TimerFreq == 0 {
		config.TimerFreq = 1_000_000 // 1 MHz
	}
	if config.FIFOCapacity == 0 {
		config.FIFOCapacity = regs.DefaultFIFOCapacity
	}
	if config.RingSize == 0 {
		config.RingSize = 1024
	}

	if len(config.UARTs) == 0 {
		config.UARTs = defaultUARTs()
	}
	if config.DataUART == "" {
		config.DataUART = "uart1"
	}
}

func defaultUARTs() map[string]UARTConfig {
	return map[string]UARTConfig{
		"uart0": {Base: "0x" + strconv.FormatUint(uint64(regs.UART0Base), 16)},
		"uart1": {Base: "0x" + strconv.FormatUint(uint64(regs.UART1Base), 16)},
	}
}

// DefaultBoardConfig returns the stock mlogv32 setup: logging on UART0, data
// on UART1.
func DefaultBoardConfig() *BoardConfig {
	return &BoardConfig{
		TimerFreq:    1_000_000,
		FIFOCapacity: regs.DefaultFIFOCapacity,
		RingSize:     1024,
		UARTs:        defaultUARTs(),
		LogUART:      "uart0",
		DataUART:     "uart1",
	}
}

// Validate checks that every UART sits in a UART slot, that no two entries
// share a block and that the log and data roles use different UARTs.
func (c *BoardConfig) Validate() error {
	if c.FIFOCapacity <= 0 {
		return fmt.Errorf("config: fifo_capacity must be positive, got %d", c.FIFOCapacity)
	}
	if c.RingSize <= 0 {
		return fmt.Errorf("config: ring_size must be positive, got %d", c.RingSize)
	}

	owners := make(map[uintptr]string, len(c.UARTs))
	for name, u := range c.UARTs {
		addr, err := u.Address()
		if err != nil {
			return fmt.Errorf("config: uarts.%s: %w", name, err)
		}
		if other, ok := owners[addr]; ok {
			return fmt.Errorf("config: uarts.%s and uarts.%s share base %#x", name, other, addr)
		}
		owners[addr] = name
		if u.FIFOCapacity < 0 {
			return fmt.Errorf("config: uarts.%s: fifo_capacity must not be negative", name)
		}
	}

	if _, ok := c.UARTs[c.DataUART]; !ok {
		return fmt.Errorf("config: data_uart %q is not defined", c.DataUART)
	}
	if c.LogUART != "" {
		if _, ok := c.UARTs[c.LogUART]; !ok {
			return fmt.Errorf("config: log_uart %q is not defined", c.LogUART)
		}
		if c.LogUART == c.DataUART {
			return fmt.Errorf("config: log_uart and data_uart both use %q", c.LogUART)
		}
	}
	return nil
}

// UART returns the configuration of the named UART.
func (c *BoardConfig) UART(name string) (UARTConfig, error) {
	u, ok := c.UARTs[name]
	if !ok {
		return UARTConfig{}, fmt.Errorf("config: unknown uart %q", name)
	}
	return u, nil
}

// Address parses the base address and checks it is a UART slot.
func (u UARTConfig) Address() (uintptr, error) {
	v, err := strconv.ParseUint(u.Base, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad base %q: %w", u.Base, err)
	}
	addr := uintptr(v)
	if addr < regs.UART0Base || (addr-regs.UART0Base)%regs.UARTStride != 0 {
		return 0, fmt.Errorf("base %#x is not a UART slot", addr)
	}
	return addr, nil
}

// Capacity returns the FIFO depth of this UART, or def if it has no override.
func (u UARTConfig) Capacity(def int) int {
	if u.FIFOCapacity > 0 {
		return u.FIFOCapacity
	}
	return def
}
