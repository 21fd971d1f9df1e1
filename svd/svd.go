// Copyright 2019 Michal Derkacz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package svd reads the parts of a CMSIS System View Description file that
// identify the target chip.
package svd

import (
	"encoding/xml"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

type Uint uint64

func (u *Uint) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s string
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	*u = Uint(v)
	return err
}

type Device struct {
	Vendor          string        `xml:"vendor"`
	Name            string        `xml:"name"`
	Series          string        `xml:"series"`
	Version         string        `xml:"version"`
	Description     string        `xml:"description"`
	CPU             *CPU          `xml:"cpu"`
	AddressUnitBits Uint          `xml:"addressUnitBits"`
	Width           Uint          `xml:"width"`
	Peripherals     []*Peripheral `xml:"peripherals>peripheral"`
}

type CPU struct {
	Name         string `xml:"name"`
	Revision     string `xml:"revision"`
	Endian       string `xml:"endian"`
	MPUPresent   bool   `xml:"mpuPresent"`
	FPUPresent   bool   `xml:"fpuPresent"`
	NVICPrioBits Uint   `xml:"nvicPrioBits"`
}

type Peripheral struct {
	DerivedFrom string       `xml:"derivedFrom,attr"`
	Name        string       `xml:"name"`
	GroupName   string       `xml:"groupName"`
	BaseAddress Uint         `xml:"baseAddress"`
	Interrupts  []*Interrupt `xml:"interrupt"`
}

type Interrupt struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Value       Uint   `xml:"value"`
}

// Load reads and decodes the SVD file.
func Load(name string) (*Device, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dev := new(Device)
	if err := xml.NewDecoder(f).Decode(dev); err != nil {
		return nil, fmt.Errorf("svd: %s: %w", name, err)
	}
	if dev.Name == "" {
		return nil, fmt.Errorf("svd: %s: no device name", name)
	}
	return dev, nil
}

// Peripheral returns the named peripheral or nil.
func (d *Device) Peripheral(name string) *Peripheral {
	for _, p := range d.Peripherals {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Group returns the peripheral group name. A derived peripheral inherits
// the group of its base.
func (d *Device) Group(p *Peripheral) string {
	for seen := 0; p != nil && seen < len(d.Peripherals); seen++ {
		if p.GroupName != "" || p.DerivedFrom == "" {
			return p.GroupName
		}
		p = d.Peripheral(p.DerivedFrom)
	}
	return ""
}

// Interrupts returns the interrupts of all peripherals sorted by number.
// An interrupt shared by several peripherals is listed once.
func (d *Device) Interrupts() []*Interrupt {
	var irqs []*Interrupt
	for _, p := range d.Peripherals {
		for _, irq := range p.Interrupts {
			if !slices.ContainsFunc(irqs, func(i *Interrupt) bool { return i.Value == irq.Value }) {
				irqs = append(irqs, irq)
			}
		}
	}
	slices.SortFunc(irqs, func(a, b *Interrupt) int { return int(a.Value) - int(b.Value) })
	return irqs
}
