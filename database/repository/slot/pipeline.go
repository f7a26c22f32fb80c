package slotRepo

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/kishan2613/Sarthi/models"
)

// StatusStage is the update-pipeline stage that recomputes status from the
// counters written by the preceding stages. Every pipeline that touches
// booked or capacity ends with it.
func StatusStage() bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$gte", Value: bson.A{"$booked", "$capacity"}}},
			string(models.SlotFull),
			string(models.SlotAvailable),
		}}}},
	}}}
}

// FitsExpr matches a slot whose remaining capacity is at least persons.
func FitsExpr(persons int) bson.D {
	return bson.D{{Key: "$lte", Value: bson.A{
		bson.D{{Key: "$add", Value: bson.A{"$booked", persons}}},
		"$capacity",
	}}}
}

// BookingsOrEmpty guards against documents written without a bookings array.
func BookingsOrEmpty() bson.D {
	return bson.D{{Key: "$ifNull", Value: bson.A{"$bookings", bson.A{}}}}
}

func filterFor(f models.SlotFilter) bson.M {
	q := bson.M{}
	if f.Date != "" {
		q["date"] = f.Date
	}
	if f.Ghat != "" {
		q["ghat"] = f.Ghat
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}
