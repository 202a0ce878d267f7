package cpu

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorNames(t *testing.T) {
	assert := assert.New(t)

	table := []struct {
		Err  Error
		Name string
	}{
		{ErrOpHalt, "OPHALT"},
		{ErrIOTrapIn, "IOTRAPIN"},
		{ErrIOTrapOut, "IOTRAPOUT"},
		{ErrIOHalt, "IOHALT"},
		{ErrIOError, "IOERROR"},
		{ErrOpTrap1, "OPTRAP1"},
		{ErrOpTrap2, "OPTRAP2"},
		{ErrOpTrap4, "OPTRAP4"},
		{ErrUserInt, "USERINT"},
		{ErrIntError, "INTERROR"},
		{ErrPowerOff, "POWEROFF"},
	}

	for _, tc := range table {
		assert.Equal(tc.Name, tc.Err.String())
		assert.NotEmpty(tc.Err.Error())
	}
	assert.Equal(Error(255), ErrPowerOff)
}

func TestCodeUnwrapsFault(t *testing.T) {
	ft := &Fault{Err: ErrUserInt, PC: 0x1234}
	wrapped := fmt.Errorf("machine: %w", ft)

	assert.Equal(t, ErrUserInt, Code(wrapped))
	assert.Equal(t, ErrIOTrapOut, Code(ErrIOTrapOut))
	assert.Equal(t, Error(0), Code(fmt.Errorf("plain")))
	assert.Equal(t, "User Interrupt at 0x1234", ft.Error())
}

func TestFaultMessages(t *testing.T) {
	assert.Equal(t, "Unsupported bus data during INT: 0xcd",
		(&Fault{Err: ErrIntError, Data: 0xCD}).Error())
	assert.Equal(t, "I/O output Trap at 0x0100, port 0x7f",
		(&Fault{Err: ErrIOTrapOut, PC: 0x0100, Port: 0x7F}).Error())
	assert.Equal(t, "Fatal I/O Error at 0x0002",
		(&Fault{Err: ErrIOError, PC: 0x0002}).Error())
}
