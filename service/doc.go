// Package service is the only write entry point into the system. All
// coordination between identity verification, the engine, and event
// fan-out happens here.
package service
