package contact

import (
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"
)

// Person is one cleaned row of the contact sheet.
type Person struct {
	Name   string   `yaml:"name,omitempty"`
	Emails []string `yaml:"emails"`
	// DOB is kept exactly as read; it is parsed when birthdays are selected.
	DOB string `yaml:"dob"`
}

// maxExcelSerial is 9999-12-31 in the 1900 date system. Larger numbers are
// left to the text parser (20060102 style dates).
const maxExcelSerial = 2958465

// dashLayouts cover month-first dash dates that dateparse reads as
// year-first or rejects.
var dashLayouts = []string{
	"01-02-2006",
	"1-2-2006",
	"01-02-06",
	"1-2-06",
}

// ParseDOB parses a date of birth the way spreadsheet exports write it:
// Excel serials, then free-form text read month-first. ok is false for
// anything it cannot read.
func ParseDOB(raw string) (dob time.Time, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial < 1 {
			return time.Time{}, false
		}
		if serial > maxExcelSerial {
			return parseText(s)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		return t, err == nil
	}

	return parseText(s)
}

func parseText(s string) (time.Time, bool) {
	if t, err := dateparse.ParseIn(s, time.Local, dateparse.PreferMonthFirst(true)); err == nil {
		return t, true
	}
	for _, layout := range dashLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsBirthday reports whether the person's DOB falls on ref's month and day.
func (p Person) IsBirthday(ref time.Time) bool {
	dob, ok := ParseDOB(p.DOB)
	if !ok {
		return false
	}
	return dob.Month() == ref.Month() && dob.Day() == ref.Day()
}

// BirthdaysOn returns the people whose birthday is on ref, ignoring the year.
// Rows with an unreadable DOB are skipped.
func BirthdaysOn(people []Person, ref time.Time) []Person {
	var matches []Person
	for _, p := range people {
		if p.IsBirthday(ref) {
			matches = append(matches, p)
		}
	}
	return matches
}
