package models

// Entity names the record families held in the document store. Each maps to
// one configured collection.
type Entity string

const (
	EntityCourse     Entity = "course"
	EntityWorkEvent  Entity = "work_event"
	EntityKudos      Entity = "kudos"
	EntityGrowthReco Entity = "growth_reco"
	EntityPulse      Entity = "pulse_aggregate"
)

const WorkEventIDPrefix = "log_"

func (e Entity) Valid() bool {
	switch e {
	case EntityCourse, EntityWorkEvent, EntityKudos, EntityGrowthReco, EntityPulse:
		return true
	}
	return false
}
