package fleet

import (
	"fmt"

	"github.com/kilianp07/fleetctl/core/model"
	"github.com/kilianp07/fleetctl/core/planner"
)

// resolveRequest builds a planner-ready Request from a submitted
// TaskProfile (§4.3 step 6). Only Clean, Delivery, and Loop are
// constructible here; a ChargeBattery/Station/Patrol profile arriving via a
// BidNotice is rejected with ErrInvalidTaskType.
func resolveRequest(profile model.TaskProfile, pl planner.Planner, docks map[string]model.DockParam) (*model.Request, error) {
	switch profile.Description.Type {
	case model.TaskClean:
		return resolveClean(profile, pl, docks)
	case model.TaskDelivery:
		return resolveDelivery(profile, pl)
	case model.TaskLoop:
		return resolveLoop(profile, pl)
	default:
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidTaskType, profile.Description.Type)
	}
}

func resolveClean(profile model.TaskProfile, pl planner.Planner, docks map[string]model.DockParam) (*model.Request, error) {
	start := profile.Description.Clean.StartWaypoint
	if start == "" {
		return nil, model.ErrMissingRequiredField
	}
	if _, err := pl.ResolveWaypoint(start); err != nil {
		return nil, err
	}
	dock, ok := docks[start]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrMissingDockParam, start)
	}
	if _, err := pl.ResolveWaypoint(dock.FinishWaypoint); err != nil {
		return nil, err
	}
	trajectory, err := pl.SynthesizeCleaningTrajectory(dock.Path)
	if err != nil {
		return nil, err
	}
	if len(trajectory) == 0 {
		return nil, model.ErrEmptyTrajectory
	}
	return &model.Request{
		TaskID:   profile.TaskID,
		Type:     model.TaskClean,
		Priority: profile.Priority,
		Clean: &model.ResolvedClean{
			StartWaypoint:  start,
			FinishWaypoint: dock.FinishWaypoint,
			Trajectory:     trajectory,
		},
	}, nil
}

func resolveDelivery(profile model.TaskProfile, pl planner.Planner) (*model.Request, error) {
	d := profile.Description.Delivery
	if d.PickupPlaceName == "" || d.PickupDispenser == "" || d.DropoffPlaceName == "" || d.DropoffIngestor == "" {
		return nil, model.ErrMissingRequiredField
	}
	if _, err := pl.ResolveWaypoint(d.PickupPlaceName); err != nil {
		return nil, err
	}
	if _, err := pl.ResolveWaypoint(d.DropoffPlaceName); err != nil {
		return nil, err
	}
	return &model.Request{
		TaskID:   profile.TaskID,
		Type:     model.TaskDelivery,
		Priority: profile.Priority,
		Delivery: &model.ResolvedDelivery{
			PickupWaypoint:  d.PickupPlaceName,
			DropoffWaypoint: d.DropoffPlaceName,
			PickupDispenser: d.PickupDispenser,
			DropoffIngestor: d.DropoffIngestor,
		},
	}, nil
}

func resolveLoop(profile model.TaskProfile, pl planner.Planner) (*model.Request, error) {
	l := profile.Description.Loop
	if l.StartName == "" || l.FinishName == "" || l.NumLoops < 1 {
		return nil, model.ErrMissingRequiredField
	}
	if _, err := pl.ResolveWaypoint(l.StartName); err != nil {
		return nil, err
	}
	if _, err := pl.ResolveWaypoint(l.FinishName); err != nil {
		return nil, err
	}
	return &model.Request{
		TaskID:   profile.TaskID,
		Type:     model.TaskLoop,
		Priority: profile.Priority,
		Loop: &model.ResolvedLoop{
			StartWaypoint:  l.StartName,
			FinishWaypoint: l.FinishName,
			NumLoops:       l.NumLoops,
		},
	}, nil
}
