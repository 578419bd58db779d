/*
Package gps acquires position samples from a serial NMEA receiver.

The decoder folds RMC and GGA sentences into a single Reading: RMC supplies
position, speed over ground and fix validity, GGA the altitude, satellite
count and horizontal dilution. Consumers poll Latest and gate on Reading.Age,
so a receiver that stops talking simply ages out instead of blocking anyone.
*/
package gps
