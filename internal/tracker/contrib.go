package tracker

import (
	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// CSRT and KCF live in the OpenCV contrib tracking module.

func newCSRT() gocv.Tracker {
	return contrib.NewTrackerCSRT()
}

func newKCF() gocv.Tracker {
	return contrib.NewTrackerKCF()
}
