// Package formulas implements the closed-form calculators of the catalog:
// health, finance, mathematics and conversion tools.
//
// Every formula takes raw form values keyed by input name and returns named
// results. Results are float64 values except for textual classifications
// such as the BMI category.
package formulas

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInput is matched by every input validation failure.
var ErrInvalidInput = errors.New("invalid input")

// InputError reports the input that failed validation.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Field, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidInput) hold.
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}

// Inputs holds raw form values keyed by input name.
type Inputs map[string]string

// Results holds named results: float64 for quantities, string for labels.
type Results map[string]any

// Formula computes results from inputs.
type Formula func(in Inputs) (Results, error)

var registry = map[string]Formula{
	"bmi":             BMI,
	"bmr":             BMR,
	"body-fat":        BodyFat,
	"emi":             EMI,
	"sip":             SIP,
	"simple-interest": SimpleInterest,
	"percentage":      Percentage,
	"age":             Age,
	"unit-conversion": ConvertUnits,
	"discount":        Discount,
	"date-difference": DateDifference,
}

// Lookup returns the formula registered under name.
func Lookup(name string) (Formula, bool) {
	f, ok := registry[name]
	return f, ok
}

// Names returns the registered formula names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Number parses the named input as a finite number.
func (in Inputs) Number(name string) (float64, error) {
	raw, ok := in[name]
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return 0, invalid(name, "is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, invalid(name, "is not a number")
	}
	return v, nil
}

// Positive parses the named input as a number greater than zero.
func (in Inputs) Positive(name string) (float64, error) {
	v, err := in.Number(name)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, invalid(name, "must be greater than zero")
	}
	return v, nil
}

// NonNegative parses the named input as a number not below zero.
func (in Inputs) NonNegative(name string) (float64, error) {
	v, err := in.Number(name)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, invalid(name, "must not be negative")
	}
	return v, nil
}

// Choice returns the named input, which must be one of options.
func (in Inputs) Choice(name string, options ...string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(in[name]))
	if v == "" {
		return "", invalid(name, "is required")
	}
	for _, o := range options {
		if v == o {
			return v, nil
		}
	}
	return "", invalid(name, "must be one of "+strings.Join(options, ", "))
}

// dateLayouts are tried in order when parsing date inputs.
var dateLayouts = []string{time.DateOnly, time.RFC3339}

// Date parses the named input as a calendar date.
func (in Inputs) Date(name string) (time.Time, error) {
	raw := strings.TrimSpace(in[name])
	if raw == "" {
		return time.Time{}, invalid(name, "is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalid(name, "is not a date (YYYY-MM-DD)")
}

// BMI computes the body mass index from weight (kg) and height (cm).
func BMI(in Inputs) (Results, error) {
	weight, err := in.Positive("weight")
	if err != nil {
		return nil, err
	}
	height, err := in.Positive("height")
	if err != nil {
		return nil, err
	}

	h := height / 100
	bmi := weight / (h * h)
	return Results{"bmi": bmi, "category": BMICategory(bmi)}, nil
}

// BMICategory classifies a body mass index.
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal weight"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}

// BMR computes the basal metabolic rate with the revised Harris-Benedict
// equation from age (years), gender, height (cm) and weight (kg).
func BMR(in Inputs) (Results, error) {
	age, err := in.Positive("age")
	if err != nil {
		return nil, err
	}
	gender, err := in.Choice("gender", "male", "female")
	if err != nil {
		return nil, err
	}
	height, err := in.Positive("height")
	if err != nil {
		return nil, err
	}
	weight, err := in.Positive("weight")
	if err != nil {
		return nil, err
	}

	var bmr float64
	if gender == "male" {
		bmr = 88.362 + 13.397*weight + 4.799*height - 5.677*age
	} else {
		bmr = 447.593 + 9.247*weight + 3.098*height - 4.330*age
	}
	return Results{"bmr": bmr}, nil
}

// BodyFat estimates body fat with the U.S. Navy method. All measurements
// are in centimeters, weight in kilograms; hip is required for women.
func BodyFat(in Inputs) (Results, error) {
	gender, err := in.Choice("gender", "male", "female")
	if err != nil {
		return nil, err
	}
	height, err := in.Positive("height")
	if err != nil {
		return nil, err
	}
	neck, err := in.Positive("neck")
	if err != nil {
		return nil, err
	}
	waist, err := in.Positive("waist")
	if err != nil {
		return nil, err
	}
	weight, err := in.Positive("weight")
	if err != nil {
		return nil, err
	}

	var pct float64
	if gender == "male" {
		if waist <= neck {
			return nil, invalid("waist", "must exceed neck")
		}
		pct = 86.010*math.Log10(waist-neck) - 70.041*math.Log10(height) + 36.76
	} else {
		hip, err := in.Positive("hip")
		if err != nil {
			return nil, err
		}
		if waist+hip <= neck {
			return nil, invalid("waist", "waist plus hip must exceed neck")
		}
		pct = 163.205*math.Log10(waist+hip-neck) - 97.684*math.Log10(height) - 78.387
	}
	pct = max(pct, 0)

	fatMass := weight * pct / 100
	return Results{
		"bodyFatPercentage": pct,
		"bodyFatMass":       fatMass,
		"leanBodyMass":      weight - fatMass,
	}, nil
}

// EMI computes the equated monthly installment of a loan from the
// principal, the annual interest rate (%) and the tenure (years).
func EMI(in Inputs) (Results, error) {
	principal, err := in.Positive("principal")
	if err != nil {
		return nil, err
	}
	rate, err := in.Positive("rate")
	if err != nil {
		return nil, err
	}
	tenure, err := in.Positive("tenure")
	if err != nil {
		return nil, err
	}

	r := rate / 1200
	n := tenure * 12
	growth := math.Pow(1+r, n)
	emi := principal * r * growth / (growth - 1)
	total := emi * n
	return Results{
		"emi":           emi,
		"totalInterest": total - principal,
		"totalPayment":  total,
	}, nil
}

// SIP projects the value of a systematic investment plan from the monthly
// investment, the expected annual return (%) and the period (years).
func SIP(in Inputs) (Results, error) {
	monthly, err := in.Positive("monthlyInvestment")
	if err != nil {
		return nil, err
	}
	rate, err := in.Positive("rate")
	if err != nil {
		return nil, err
	}
	tenure, err := in.Positive("tenure")
	if err != nil {
		return nil, err
	}

	i := rate / 100 / 12
	n := tenure * 12
	total := monthly * ((math.Pow(1+i, n) - 1) / i) * (1 + i)
	invested := monthly * n
	return Results{
		"investedAmount":   invested,
		"estimatedReturns": total - invested,
		"totalValue":       total,
	}, nil
}

// SimpleInterest computes P·R·T/100 and the resulting total.
func SimpleInterest(in Inputs) (Results, error) {
	principal, err := in.Positive("principal")
	if err != nil {
		return nil, err
	}
	rate, err := in.NonNegative("rate")
	if err != nil {
		return nil, err
	}
	period, err := in.Positive("time")
	if err != nil {
		return nil, err
	}

	interest := principal * rate * period / 100
	return Results{"interest": interest, "totalAmount": principal + interest}, nil
}

// Percentage computes percentage% of total.
func Percentage(in Inputs) (Results, error) {
	pct, err := in.Number("percentage")
	if err != nil {
		return nil, err
	}
	total, err := in.Number("total")
	if err != nil {
		return nil, err
	}
	return Results{"result": pct / 100 * total}, nil
}

// metersPer maps the supported length units to their size in meters.
var metersPer = map[string]float64{
	"meters":     1,
	"feet":       0.3048,
	"inches":     0.0254,
	"kilometers": 1000,
	"miles":      1609.34,
}

// LengthUnits returns the supported length units, sorted.
func LengthUnits() []string {
	units := make([]string, 0, len(metersPer))
	for u := range metersPer {
		units = append(units, u)
	}
	sort.Strings(units)
	return units
}

// ConvertUnits converts a length between the supported units.
func ConvertUnits(in Inputs) (Results, error) {
	value, err := in.Number("value")
	if err != nil {
		return nil, err
	}
	units := LengthUnits()
	from, err := in.Choice("fromUnit", units...)
	if err != nil {
		return nil, err
	}
	to, err := in.Choice("toUnit", units...)
	if err != nil {
		return nil, err
	}
	return Results{"result": value * metersPer[from] / metersPer[to]}, nil
}

// Discount computes the final price and the saved amount.
func Discount(in Inputs) (Results, error) {
	price, err := in.NonNegative("price")
	if err != nil {
		return nil, err
	}
	discount, err := in.NonNegative("discount")
	if err != nil {
		return nil, err
	}
	if discount > 100 {
		return nil, invalid("discount", "must not exceed 100")
	}

	saved := price * discount / 100
	return Results{"finalPrice": price - saved, "savedAmount": saved}, nil
}

// now is replaced in tests.
var now = time.Now

// Age computes the age in whole years, months and days from dob to today.
func Age(in Inputs) (Results, error) {
	dob, err := in.Date("dob")
	if err != nil {
		return nil, err
	}
	today := now().UTC()
	if dob.After(today) {
		return nil, invalid("dob", "must not be in the future")
	}
	years, months, days := AgeAt(dob, today)
	return Results{"years": float64(years), "months": float64(months), "days": float64(days)}, nil
}

// DateDifference computes the total years, months, weeks and days between
// startDate and endDate. The values are negative when endDate comes first.
func DateDifference(in Inputs) (Results, error) {
	start, err := in.Date("startDate")
	if err != nil {
		return nil, err
	}
	end, err := in.Date("endDate")
	if err != nil {
		return nil, err
	}

	days := DaysBetween(start, end)
	months := MonthsBetween(start, end)
	return Results{
		"years":  float64(months / 12),
		"months": float64(months),
		"weeks":  float64(days) / 7,
		"days":   float64(days),
	}, nil
}
