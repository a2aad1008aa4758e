package util

const CollectorVersion = "0.3.0"

const CollectorNameAndVersion = "memvis-collector " + CollectorVersion
