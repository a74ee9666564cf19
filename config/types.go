package config

// UARTConfig describes one UART block
type UARTConfig struct {
	Base         string `json:"base"`                    // Register base address, e.g. "0xf0000010"
	FIFOCapacity int    `json:"fifo_capacity,omitempty"` // Transmit FIFO depth (0 = board default)
}

// BoardConfig represents the complete board configuration
type BoardConfig struct {
	TimerFreq    uint64                `json:"timer_freq"`    // Machine timer rate (Hz)
	FIFOCapacity int                   `json:"fifo_capacity"` // Default transmit FIFO depth
	RingSize     int                   `json:"ring_size"`     // Receive ring buffer of the data port (bytes)
	UARTs        map[string]UARTConfig `json:"uarts"`         // "uart0", "uart1", etc.

	LogUART  string `json:"log_uart"`  // UART for debug output ("" = no logging)
	DataUART string `json:"data_uart"` // UART carrying application data
}
