package mapper

import "github.com/soar/vrinput/backend/internal/cvar"

// Names of the cvars the left-handed scheme reads and writes.
const (
	CvarHand              = "hand"
	CvarWeaponStabilised  = "vr_weapon_stabilised"
	CvarWeaponPitchAdjust = "vr_weapon_pitchadjust"
	CvarReloadTimeoutMS   = "vr_reloadtimeoutms"
	CvarPositionalFactor  = "vr_positional_factor"
	CvarWalkDirection     = "vr_walkdirection"
	CvarSnapTurnAngle     = "vr_snapturn_angle"
	CvarLaserSight        = "vr_lasersight"
	CvarForwardSpeed      = "cl_forwardspeed"
	CvarMoveSpeedKey      = "cl_movespeedkey"
)

// RegisterCvars registers every cvar the scheme uses with its engine default.
func RegisterCvars(r *cvar.Registry) {
	r.Register(CvarHand, "0", cvar.Archive)
	r.Register(CvarWeaponStabilised, "0", cvar.Archive)
	r.Register(CvarWeaponPitchAdjust, "-20.0", cvar.Archive)
	r.Register(CvarReloadTimeoutMS, "200", cvar.Archive)
	r.Register(CvarPositionalFactor, "2400", cvar.Archive)
	r.Register(CvarWalkDirection, "0", cvar.Archive)
	r.Register(CvarSnapTurnAngle, "45", cvar.Archive)
	r.Register(CvarLaserSight, "0", cvar.Archive)
	r.Register(CvarForwardSpeed, "400", cvar.Archive)
	r.Register(CvarMoveSpeedKey, "0.3", cvar.Archive)
}
