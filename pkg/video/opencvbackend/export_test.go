package opencvbackend

import "gocv.io/x/gocv"

func OverloadOpenVideoCapture(overload func(string) (*gocv.VideoCapture, error)) func() {
	openVideoCaptureRef := openVideoCapture
	openVideoCapture = overload
	return func() { openVideoCapture = openVideoCaptureRef }
}

func OverloadCloseVideoCapture(overload func(*gocv.VideoCapture) error) func() {
	closeVideoCaptureRef := closeVideoCapture
	closeVideoCapture = overload
	return func() { closeVideoCapture = closeVideoCaptureRef }
}
