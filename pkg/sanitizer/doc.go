// Package sanitizer normalizes user-entered form values before validation:
// names and whitespace, emails, licence numbers, promotion codes and phone
// numbers (E.164 via libphonenumber).
package sanitizer
