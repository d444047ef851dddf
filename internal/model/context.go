// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"strings"
)

// ContextType is a closed enumeration of situation categories a frame can be
// classified into. ContextUnknown doubles as "feelings mode": when the
// classifier cannot place the scene (or sees a selfie), the emotional
// self-expression tile set is shown instead of situational phrases.
type ContextType string

// Context type constants.
const (
	ContextRestaurantCounter ContextType = "restaurant_counter"
	ContextRestaurantTable   ContextType = "restaurant_table"
	ContextPlayground        ContextType = "playground"
	ContextClassroom         ContextType = "classroom"
	ContextHomeKitchen       ContextType = "home_kitchen"
	ContextHomeLiving        ContextType = "home_living"
	ContextStoreCheckout     ContextType = "store_checkout"
	ContextMedicalOffice     ContextType = "medical_office"
	ContextUnknown           ContextType = "unknown"
)

// AllContexts lists every valid context type in catalog order.
var AllContexts = []ContextType{
	ContextRestaurantCounter,
	ContextRestaurantTable,
	ContextPlayground,
	ContextClassroom,
	ContextHomeKitchen,
	ContextHomeLiving,
	ContextStoreCheckout,
	ContextMedicalOffice,
	ContextUnknown,
}

// ParseContext validates an external string against the closed enum.
// Classifier output is untrusted; anything outside the enum is an error so
// garbage labels never propagate into the stabilizer.
func ParseContext(s string) (ContextType, error) {
	candidate := ContextType(strings.ToLower(strings.TrimSpace(s)))
	for _, ct := range AllContexts {
		if candidate == ct {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown context type %q", s)
}

// Category returns the coarse location category, the first underscore-delimited
// token (e.g. "restaurant" for restaurant_counter). Session-location shift
// detection compares at this granularity so that moving from the counter to a
// table does not count as leaving the restaurant.
func (c ContextType) Category() string {
	if c == "" {
		return ""
	}
	return strings.SplitN(string(c), "_", 2)[0]
}

// Format renders the context as a human-readable label ("Restaurant Counter").
func (c ContextType) Format() string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
