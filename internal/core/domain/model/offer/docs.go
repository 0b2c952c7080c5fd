// Package offer models the Order Offer: one proposed delivery with its restaurant,
// customer and trip estimates. Offers are immutable value objects.
package offer
