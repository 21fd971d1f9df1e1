// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package makefile

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const cubeMakefile = `##########################################################################################################################
# File automatically-generated by tool: [projectgenerator] version: [3.10.0] date: [Sat Feb 01 12:00:00 CET 2020]
##########################################################################################################################

# ------------------------------------------------
# Generic Makefile (based on gcc)
# ------------------------------------------------

######################################
# target
######################################
TARGET = blinky


######################################
# building variables
######################################
# debug build?
DEBUG = 1
# optimization
OPT = -Og


#######################################
# paths
#######################################
# Build path
BUILD_DIR = build

######################################
# source
######################################
# C sources
C_SOURCES =  \
Core/Src/main.c \
Core/Src/stm32f0xx_it.c \
Core/Src/system_stm32f0xx.c

# ASM sources
ASM_SOURCES =  \
startup_stm32f051x8.s


#######################################
# CFLAGS
#######################################
# cpu
CPU = -mcpu=cortex-m0

# mcu
MCU = $(CPU) -mthumb $(FPU) $(FLOAT-ABI)

# AS defines
AS_DEFS =

# C defines
C_DEFS =  \
-DUSE_HAL_DRIVER \
-DSTM32F051x8

# AS includes
AS_INCLUDES =

# C includes
C_INCLUDES =  \
-ICore/Inc \
-IDrivers/CMSIS/Include

# compile gcc flags
ASFLAGS = $(MCU) $(AS_DEFS) $(AS_INCLUDES) $(OPT) -Wall -fdata-sections -ffunction-sections

CFLAGS = $(MCU) $(C_DEFS) $(C_INCLUDES) $(OPT) -Wall -fdata-sections -ffunction-sections

ifeq ($(DEBUG), 1)
CFLAGS += -g -gdwarf-2
endif


#######################################
# LDFLAGS
#######################################
# link script
LDSCRIPT = STM32F051K8Tx_FLASH.ld

# libraries
LIBS = -lc -lm -lnosys
LIBDIR =
LDFLAGS = $(MCU) -specs=nano.specs -T$(LDSCRIPT) $(LIBDIR) $(LIBS) -Wl,-Map=$(BUILD_DIR)/$(TARGET).map,--cref -Wl,--gc-sections

# default action: build all
all: $(BUILD_DIR)/$(TARGET).elf $(BUILD_DIR)/$(TARGET).hex $(BUILD_DIR)/$(TARGET).bin

clean:
	-rm -fR $(BUILD_DIR)
`

func cubeLines() []string {
	// Empty assignments keep their trailing blank, as the generator writes them.
	return Parse("Makefile", strings.ReplaceAll(cubeMakefile, " =\n", " = \n")).Lines
}

func TestReadData(t *testing.T) {
	got, err := ReadData(cubeLines())
	if err != nil {
		t.Fatal(err)
	}
	mcu := []string{"-mcpu=cortex-m0", "-mthumb", "$(FPU)", "$(FLOAT-ABI)"}
	want := &Data{
		ProjectName: "blinky",
		BuildDir:    "build",
		CSources:    []string{"Core/Src/main.c", "Core/Src/stm32f0xx_it.c", "Core/Src/system_stm32f0xx.c"},
		AsmSources:  []string{"startup_stm32f051x8.s"},
		LdSources:   []string{"-lc", "-lm", "-lnosys"},
		CDefines:    []string{"USE_HAL_DRIVER", "STM32F051x8"},
		CIncludes:   []string{"Core/Inc", "Drivers/CMSIS/Include"},
		CFlags: append(append(append([]string{}, mcu...),
			"-DUSE_HAL_DRIVER", "-DSTM32F051x8", "-ICore/Inc", "-IDrivers/CMSIS/Include", "-Og"),
			"-Wall", "-fdata-sections", "-ffunction-sections"),
		AsmFlags: append(append([]string{}, mcu...),
			"-Og", "-Wall", "-fdata-sections", "-ffunction-sections"),
		LdFlags: append(append([]string{}, mcu...),
			"-specs=nano.specs", "-TSTM32F051K8Tx_FLASH.ld", "-lc", "-lm", "-lnosys",
			"-Wl,-Map=build/blinky.map,--cref", "-Wl,--gc-sections"),
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("ReadData() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadDataMissing(t *testing.T) {
	lines := cubeLines()
	for i, l := range lines {
		if strings.HasPrefix(l, "LIBDIR = ") {
			lines[i] = "# removed"
		}
	}
	_, err := ReadData(lines)
	if !errors.Is(err, ErrStructuralMismatch) {
		t.Fatalf("got %v, want ErrStructuralMismatch", err)
	}
	if !strings.Contains(err.Error(), "LIBDIR") {
		t.Errorf("error %q does not name LIBDIR", err)
	}
}

func TestExpand(t *testing.T) {
	lines := []string{
		"A = a",
		"B = $(A) ${A}",
		"LOOP = $(LOOP) x",
		"C = $(B) $$(HOME)",
	}
	tests := []struct {
		in, want string
	}{
		{"$(A)", "a"},
		{"$(B)/x", "a a/x"},
		{"$(C)", "a a $$(HOME)"},
		{"$(LOOP)", "$(LOOP) x"},
		{"$(UNKNOWN) $(addprefix -I,x)", "$(UNKNOWN) $(addprefix -I,x)"},
		{"$(A", "$(A"},
		{"cost $5", "cost $5"},
	}
	for _, tt := range tests {
		if got := Expand(lines, tt.in); got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
