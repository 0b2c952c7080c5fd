// Package kernel holds the shared value objects of the delivery-partner domain:
// identifiers (UUID), validated WGS84 coordinates (GeoPoint) with haversine distance
// and spherical bearing, and route polylines (Route).
//
// Every value object is immutable and must be created through its constructor;
// zero values fail Validate.
package kernel
