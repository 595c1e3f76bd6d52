package track

import "github.com/johnquangdev/meeting-session/internal/domain/entities"

// Composition is the transport track set split into the views the UI renders
type Composition struct {
	LocalCamera *entities.TrackRef  `json:"local_camera,omitempty"`
	LocalScreen *entities.TrackRef  `json:"local_screen,omitempty"`
	Remote      []entities.TrackRef `json:"remote"`
}

// Compose classifies tracks. It keeps no state: call it again on every
// track-set change. At most one local camera and one local screen share are
// taken; further local tracks of the same source are ignored.
func Compose(localID string, tracks []entities.TrackRef) Composition {
	comp := Composition{Remote: []entities.TrackRef{}}

	for i := range tracks {
		t := tracks[i]
		if !isLocal(localID, t) {
			comp.Remote = append(comp.Remote, t)
			continue
		}

		switch t.Source {
		case entities.TrackSourceCamera:
			if comp.LocalCamera == nil {
				comp.LocalCamera = &t
			}
		case entities.TrackSourceScreenShare:
			if comp.LocalScreen == nil {
				comp.LocalScreen = &t
			}
		}
	}

	return comp
}

func isLocal(localID string, t entities.TrackRef) bool {
	if t.Local {
		return true
	}
	return localID != "" && t.ParticipantID == localID
}
