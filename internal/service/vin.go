package service

import (
	"regexp"
	"strings"
)

var vinRe = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

// NormalizeVIN devuelve el VIN en mayusculas y sin espacios, o ErrInvalidVIN.
func NormalizeVIN(raw string) (string, error) {
	vin := strings.ToUpper(strings.TrimSpace(raw))
	if !vinRe.MatchString(vin) {
		return "", ErrInvalidVIN
	}
	return vin, nil
}

var vinTransliteration = map[byte]int{
	'A': 1, 'B': 2, 'C': 3, 'D': 4, 'E': 5, 'F': 6, 'G': 7, 'H': 8,
	'J': 1, 'K': 2, 'L': 3, 'M': 4, 'N': 5, 'P': 7, 'R': 9,
	'S': 2, 'T': 3, 'U': 4, 'V': 5, 'W': 6, 'X': 7, 'Y': 8, 'Z': 9,
}

var vinWeights = [17]int{8, 7, 6, 5, 4, 3, 2, 10, 0, 9, 8, 7, 6, 5, 4, 3, 2}

// checkDigitApplies: solo los VIN norteamericanos (WMI 1-5) usan digito verificador.
func checkDigitApplies(vin string) bool {
	return len(vin) == 17 && vin[0] >= '1' && vin[0] <= '5'
}

// validCheckDigit verifica la posicion 9 de un VIN ya normalizado.
func validCheckDigit(vin string) bool {
	sum := 0
	for i := 0; i < 17; i++ {
		c := vin[i]
		v := 0
		if c >= '0' && c <= '9' {
			v = int(c - '0')
		} else {
			v = vinTransliteration[c]
		}
		sum += v * vinWeights[i]
	}
	rem := sum % 11
	want := byte('0' + rem)
	if rem == 10 {
		want = 'X'
	}
	return vin[8] == want
}

const modelYearCodes = "ABCDEFGHJKLMNPRSTVWXY123456789"

// modelYearFromVIN interpreta la posicion 10 (ciclo de 30 años desde 1980)
// y elige el año mas reciente que no supere maxYear. 0 si no se reconoce.
func modelYearFromVIN(vin string, maxYear int) int {
	if len(vin) < 10 {
		return 0
	}
	idx := strings.IndexByte(modelYearCodes, vin[9])
	if idx < 0 {
		return 0
	}
	year := 1980 + idx
	for year+30 <= maxYear {
		year += 30
	}
	return year
}

// wmiManufacturers mapea el World Manufacturer Identifier a la marca.
var wmiManufacturers = map[string]string{
	"1FA": "Ford", "1FM": "Ford", "1FT": "Ford", "1FD": "Ford", "2FM": "Ford", "3FA": "Ford",
	"1G1": "Chevrolet", "1GC": "Chevrolet", "1GN": "Chevrolet", "2G1": "Chevrolet", "3GC": "Chevrolet",
	"1GT": "GMC", "1GK": "GMC", "1G6": "Cadillac", "1GY": "Cadillac", "1G4": "Buick",
	"1C3": "Chrysler", "2C3": "Chrysler", "1C4": "Jeep", "1J4": "Jeep", "1C6": "Ram", "3C6": "Ram",
	"1HG": "Honda", "2HG": "Honda", "5FN": "Honda", "5J6": "Honda", "JHM": "Honda", "19X": "Honda",
	"19U": "Acura", "JH4": "Acura",
	"4T1": "Toyota", "5TD": "Toyota", "5TF": "Toyota", "2T1": "Toyota", "JTD": "Toyota", "JTE": "Toyota", "JTM": "Toyota",
	"JTH": "Lexus", "2T2": "Lexus",
	"1N4": "Nissan", "1N6": "Nissan", "5N1": "Nissan", "3N1": "Nissan", "JN1": "Nissan", "JN8": "Nissan",
	"4S3": "Subaru", "4S4": "Subaru", "JF1": "Subaru", "JF2": "Subaru",
	"5NP": "Hyundai", "KMH": "Hyundai", "KM8": "Hyundai",
	"5XY": "Kia", "KNA": "Kia", "KND": "Kia",
	"JM1": "Mazda", "JM3": "Mazda",
	"WBA": "BMW", "WBS": "BMW", "5UX": "BMW", "5YM": "BMW",
	"WDD": "Mercedes-Benz", "WDC": "Mercedes-Benz", "4JG": "Mercedes-Benz", "W1K": "Mercedes-Benz",
	"WAU": "Audi", "WA1": "Audi",
	"WVW": "Volkswagen", "WVG": "Volkswagen", "3VW": "Volkswagen", "1VW": "Volkswagen",
	"5YJ": "Tesla", "7SA": "Tesla",
	"YV1": "Volvo", "YV4": "Volvo",
	"SAL": "Land Rover", "SAJ": "Jaguar",
	"ZFF": "Ferrari", "WP0": "Porsche", "WP1": "Porsche",
	"JA3": "Mitsubishi", "JA4": "Mitsubishi", "4A3": "Mitsubishi",
}

// wmiRegionPrefixes resuelve prefijos de dos caracteres cuando el WMI completo no esta en la tabla.
var wmiRegionPrefixes = map[string]string{
	"1G": "General Motors", "2G": "General Motors", "3G": "General Motors",
	"1F": "Ford", "2F": "Ford", "3F": "Ford",
	"1C": "Stellantis", "2C": "Stellantis", "3C": "Stellantis",
	"JH": "Honda", "JT": "Toyota", "JN": "Nissan", "JF": "Subaru", "JM": "Mazda",
	"KM": "Hyundai", "KN": "Kia",
	"WB": "BMW", "WD": "Mercedes-Benz", "WV": "Volkswagen",
}

func manufacturerFromWMI(vin string) string {
	if len(vin) < 3 {
		return ""
	}
	if m, ok := wmiManufacturers[vin[:3]]; ok {
		return m
	}
	return wmiRegionPrefixes[vin[:2]]
}
