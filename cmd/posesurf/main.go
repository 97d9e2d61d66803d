// Command posesurf plays a browser runner game with body gestures seen by the
// webcam: raise an arm to change lane, both arms to jump, duck to slide.
package main

import "runtime"

func init() {
	// The camera window, or the system tray when shown, runs on the main
	// thread. The two cannot share it.
	runtime.LockOSThread()
}

func main() {
	Execute()
}
