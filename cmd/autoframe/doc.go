// Command autoframe runs the virtual camera operator.
//
// The capture side (autoframe run) reads the wide camera, frames the subject
// and writes cropped frames to shared memory, announcing each over the
// bridge. The sink side (autoframe sink) accepts those announcements and
// feeds a fixed-rate BGRA stream to the virtual camera device, filling gaps
// with keepalive frames. The two run as separate processes and either may be
// restarted without the other.
package main
