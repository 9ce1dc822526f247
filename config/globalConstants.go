package config

// --------------------------------CONSTANTS--------------------------------
const NFloors int = 5
const TopFloor int = NFloors - 1

// HomeFloor is where the car parks when nobody needs it.
const HomeFloor int = 2
