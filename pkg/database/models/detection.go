package models

import (
	"image"

	"github.com/google/uuid"
	"github.com/tauraamui/nvtracker/pkg/model"
	"gorm.io/gorm"
)

func init() {
	registerForAutomigration(&Detection{})
}

// Detection is a journal row for one tracked frame.
type Detection struct {
	gorm.Model
	UUID        string
	TrackerUUID string `gorm:"index"`
	Timestamp   float64
	FaceFound   bool
	FaceMinX    int
	FaceMinY    int
	FaceMaxX    int
	FaceMaxY    int
	RegionMinX  int
	RegionMinY  int
	RegionMaxX  int
	RegionMaxY  int
	Landmarks   int
	Pitch       float64
	Yaw         float64
	Roll        float64
}

func (d *Detection) BeforeCreate(tx *gorm.DB) error {
	d.UUID = uuid.NewString()
	return nil
}

func NewDetection(d model.Detection) *Detection {
	return &Detection{
		TrackerUUID: d.TrackerUUID,
		Timestamp:   d.Timestamp,
		FaceFound:   d.Result.Found(),
		FaceMinX:    d.Result.Face.Min.X,
		FaceMinY:    d.Result.Face.Min.Y,
		FaceMaxX:    d.Result.Face.Max.X,
		FaceMaxY:    d.Result.Face.Max.Y,
		RegionMinX:  d.Region.Min.X,
		RegionMinY:  d.Region.Min.Y,
		RegionMaxX:  d.Region.Max.X,
		RegionMaxY:  d.Region.Max.Y,
		Landmarks:   len(d.Result.Landmarks),
		Pitch:       d.Result.Pose.Pitch,
		Yaw:         d.Result.Pose.Yaw,
		Roll:        d.Result.Pose.Roll,
	}
}

func (d *Detection) Face() image.Rectangle {
	return image.Rect(d.FaceMinX, d.FaceMinY, d.FaceMaxX, d.FaceMaxY)
}

func (d *Detection) Region() image.Rectangle {
	return image.Rect(d.RegionMinX, d.RegionMinY, d.RegionMaxX, d.RegionMaxY)
}
