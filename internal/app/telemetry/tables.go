package telemetry

// defaultThrottle maps a channel to the minimum number of seconds between
// two recorded updates. Slow-moving environment channels get 15 s, gauges
// that jitter every tick get 1 s.
var defaultThrottle = map[string]int{
	"AirDensity":       15,
	"AirPressure":      15,
	"AirTemp":          15,
	"CarIdxRPM":        1,
	"FogLevel":         15,
	"FuelLevel":        1,
	"FuelLevelPct":     1,
	"FuelPress":        1,
	"FuelUsePerHour":   1,
	"ManifoldPress":    1,
	"OilPress":         1,
	"OilTemp":          15,
	"PitOptRepairLeft": 1,
	"PitRepairLeft":    1,
	"RelativeHumidity": 15,
	"SolarAltitude":    15,
	"SolarAzimuth":     15,
	"TrackTempCrew":    1,
	"Voltage":          1,
	"WaterTemp":        15,
	"WindDir":          15,
	"WindVel":          15,
}

// defaultIgnored lists channels that are never recorded: duplicates of
// per-car arrays, values that can be rebuilt from a replay, and channels that
// only describe the live client (camera, CPU, frame rate).
var defaultIgnored = []string{
	"Brake", "BrakeRaw", "CamCameraNumber", "CamCameraState", "CamCarIdx", "CamGroupNumber",
	"CarIdxBestLapNum", "CarIdxBestLapTime", "CarIdxClass", "CarIdxClassPosition", "CarIdxEstTime",
	"CarIdxF2Time", "CarIdxGear", "CarIdxLap", "CarIdxLapCompleted", "CarIdxLapDistPct",
	"CarIdxLastLapTime", "CarIdxOnPitRoad", "CarIdxP2P_Count", "CarIdxPosition",
	"CarIdxQualTireCompound", "CarIdxQualTireCompoundLocked", "CarIdxRPM", "CarIdxSteer",
	"CarIdxTireCompound", "CarIdxTrackSurface", "CarIdxTrackSurfaceMaterial", "ChanAvgLatency",
	"ChanClockSkew", "ChanLatency", "ChanPartnerQuality", "ChanQuality", "Clutch", "ClutchRaw",
	"CpuUsageBG", "CpuUsageFG", "DisplayUnits", "Engine0_RPM", "EnterExitReset", "FrameRate", "Gear",
	"GpuUsage", "IsDiskLoggingActive", "IsDiskLoggingEnabled", "IsInGarage", "IsOnTrack",
	"IsOnTrackCar", "IsReplayPlaying", "Lap", "LapBestLap", "LapBestLapTime", "LapBestNLapLap",
	"LapBestNLapTime", "LapCompleted", "LapCurrentLapTime", "LapDeltaToBestLap",
	"LapDeltaToBestLap_DD", "LapDeltaToBestLap_OK", "LapDeltaToOptimalLap", "LapDeltaToOptimalLap_DD",
	"LapDeltaToOptimalLap_OK", "LapDeltaToSessionBestLap", "LapDeltaToSessionBestLap_DD",
	"LapDeltaToSessionBestLap_OK", "LapDeltaToSessionLastlLap", "LapDeltaToSessionLastlLap_DD",
	"LapDeltaToSessionLastlLap_OK", "LapDeltaToSessionOptimalLap", "LapDeltaToSessionOptimalLap_DD",
	"LapDeltaToSessionOptimalLap_OK", "LapDist", "LapDistPct", "LapLasNLapSeq", "LapLastLapTime",
	"LapLastNLapTime", "LatAccel", "LatAccel_ST", "LFshockDefl", "LFshockDefl_ST", "LFshockVel",
	"LFshockVel_ST", "LFSHshockDefl", "LFSHshockDefl_ST", "LFSHshockVel", "LFSHshockVel_ST",
	"LoadNumTextures", "LongAccel", "LongAccel_ST", "LRshockDefl", "LRshockDefl_ST", "LRshockVel",
	"LRshockVel_ST", "LRSHshockDefl", "LRSHshockDefl_ST", "LRSHshockVel", "LRSHshockVel_ST",
	"MemPageFaultSec", "MemSoftPageFaultSec", "OkToReloadTextures", "OnPitRoad", "Pitch", "PitchRate",
	"PitchRate_ST", "PlayerCarClass", "PlayerCarClassPosition", "PlayerCarIdx", "PlayerCarPosition",
	"PlayerFastRepairsUsed", "PlayerTireCompound", "PlayerTrackSurface", "PlayerTrackSurfaceMaterial",
	"PushToTalk", "RaceLaps", "RadioTransmitCarIdx", "ReplayFrameNum", "ReplayFrameNumEnd",
	"ReplayPlaySpeed", "ReplaySessionNum", "ReplaySessionTime", "RFshockDefl", "RFshockDefl_ST",
	"RFshockVel", "RFshockVel_ST", "RFSHshockDefl", "RFSHshockDefl_ST", "RFSHshockVel",
	"RFSHshockVel_ST", "Roll", "RollRate", "RollRate_ST", "RPM", "RRshockDefl", "RRshockDefl_ST",
	"RRshockVel", "RRshockVel_ST", "RRSHshockDefl", "RRSHshockDefl_ST", "RRSHshockVel",
	"RRSHshockVel_ST", "SessionLapsRemain", "SessionLapsRemainEx", "SessionLapsTotal", "SessionNum",
	"SessionState", "SessionTick", "SessionTime", "SessionTimeOfDay", "SessionTimeRemain",
	"SessionTimeTotal", "SessionUniqueID", "ShiftIndicatorPct", "Speed", "SteeringWheelAngle",
	"SteeringWheelAngleMax", "SteeringWheelPctTorque", "SteeringWheelPctTorqueSign",
	"SteeringWheelPctTorqueSignStops", "SteeringWheelTorque", "SteeringWheelTorque_ST", "Throttle",
	"ThrottleRaw", "TrackTemp", "VelocityX", "VelocityX_ST", "VelocityY", "VelocityY_ST", "VelocityZ",
	"VelocityZ_ST", "VertAccel", "VertAccel_ST", "VidCapActive", "VidCapEnabled", "Yaw", "YawNorth",
	"YawRate", "YawRate_ST",
}
